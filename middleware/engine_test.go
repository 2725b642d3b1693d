package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin/checkintest"
	"github.com/ufacm/checkin/middleware"
)

func TestGuardWithEngineSession(t *testing.T) {
	h := checkintest.New(t)
	sess := h.Confirmed(t, "albert@ufl.edu", "swamp-pass")

	handler := middleware.Guard(h.Engine, middleware.DefaultRouteConfig(), zerolog.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := middleware.UserFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in context")
			}
			_, _ = w.Write([]byte(user.Email))
		}),
	)

	request := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: middleware.DefaultCookieName, Value: sess.AccessToken})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := request("/dashboard")
	if rec.Code != http.StatusOK || rec.Body.String() != "albert@ufl.edu" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = request("/")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	if err := h.Engine.SignOut(context.Background(), sess.AccessToken); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	rec = request("/dashboard")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/" {
		t.Fatalf("signed-out session must redirect to landing, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
