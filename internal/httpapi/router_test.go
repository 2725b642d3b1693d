package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/checkintest"
	"github.com/ufacm/checkin/internal/httpapi"
	"github.com/ufacm/checkin/middleware"
)

const (
	testEmail    = "albert@ufl.edu"
	testPassword = "gators-2024"
)

func newServer(t *testing.T, opts ...checkintest.Option) (*checkintest.Harness, http.Handler) {
	t.Helper()
	h := checkintest.New(t, opts...)
	router := httpapi.NewRouter(h.Engine, httpapi.Options{
		Organizations: []httpapi.Organization{
			{ID: "1", Name: "Association for Computing Machinery", Slug: "acm"},
		},
		Logger: zerolog.Nop(),
	})
	return h, router
}

func do(handler http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return body.Error, body.Code
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("response did not set %s cookie", middleware.DefaultCookieName)
	return nil
}

func signupAndVerify(t *testing.T, h *checkintest.Harness, router http.Handler) *http.Cookie {
	t.Helper()

	rec := do(router, http.MethodPost, "/auth/v1/signup", `{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	code := h.Sender.LastCode(testEmail)
	if len(code) != 8 {
		t.Fatalf("expected an 8-digit code to be sent, got %q", code)
	}

	rec = do(router, http.MethodPost, "/auth/v1/verify", `{"email":"`+testEmail+`","token":"`+code+`","type":"signup"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var sess struct {
		AccessToken string        `json:"access_token"`
		ExpiresAt   time.Time     `json:"expires_at"`
		User        *checkin.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("invalid verify body: %v", err)
	}
	if sess.AccessToken == "" || sess.User == nil || !sess.User.EmailConfirmed {
		t.Fatalf("unexpected session payload %s", rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie.Value != sess.AccessToken || !cookie.HttpOnly {
		t.Fatalf("cookie must carry the access token and be HttpOnly: %+v", cookie)
	}
	return cookie
}

func TestSignupVerifyOpensDashboard(t *testing.T) {
	h, router := newServer(t)
	cookie := signupAndVerify(t, h, router)

	rec := do(router, http.MethodGet, "/dashboard", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected dashboard 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), testEmail) {
		t.Fatalf("dashboard must show the principal, got %q", rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/", "", cookie)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("landing with session must redirect home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAnonymousRequests(t *testing.T) {
	_, router := newServer(t)

	tests := []struct {
		path     string
		status   int
		location string
	}{
		{path: "/", status: http.StatusOK},
		{path: "/dashboard", status: http.StatusTemporaryRedirect, location: "/"},
		{path: "/organizations?page=2", status: http.StatusTemporaryRedirect, location: "/?page=2"},
		{path: "/nowhere", status: http.StatusTemporaryRedirect, location: "/"},
		{path: "/auth/v1/user", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(router, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Fatalf("expected location %q, got %q", tt.location, got)
			}
		})
	}
}

func TestUserEndpoint(t *testing.T) {
	h, router := newServer(t)
	cookie := signupAndVerify(t, h, router)

	rec := do(router, http.MethodGet, "/auth/v1/user", "")
	if msg, _ := decodeError(t, rec); rec.Code != http.StatusUnauthorized || msg != "Auth session missing!" {
		t.Fatalf("expected 401 without session, got %d %q", rec.Code, msg)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", rec.Code)
	}
	var user checkin.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid user body: %v", err)
	}
	if user.Email != testEmail {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestProviderErrorsAreVerbatim(t *testing.T) {
	h, router := newServer(t)
	signupAndVerify(t, h, router)

	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{
			name:    "outside institution",
			path:    "/auth/v1/signup",
			body:    `{"email":"albert@gmail.com","password":"` + testPassword + `"}`,
			message: checkin.ErrEmailAddressInvalid.Message,
		},
		{
			name:    "already registered",
			path:    "/auth/v1/signup",
			body:    `{"email":"` + testEmail + `","password":"` + testPassword + `"}`,
			message: "User already registered",
		},
		{
			name:    "wrong code",
			path:    "/auth/v1/verify",
			body:    `{"email":"` + testEmail + `","token":"00000000","type":"signup"}`,
			message: "Token has expired or is invalid",
		},
		{
			name:    "unsupported type",
			path:    "/auth/v1/resend",
			body:    `{"email":"` + testEmail + `","type":"magiclink"}`,
			message: checkin.ErrOTPTypeUnsupported.Message,
		},
		{
			name:    "bad password",
			path:    "/auth/v1/token",
			body:    `{"email":"` + testEmail + `","password":"wrong-password"}`,
			message: checkin.ErrInvalidCredentials.Message,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
			}
			if msg, code := decodeError(t, rec); msg != tt.message || code == "" {
				t.Fatalf("expected %q with a code, got %q %q", tt.message, msg, code)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	_, router := newServer(t)

	for _, body := range []string{`{`, `{"email":"a@ufl.edu","unknown":1}`, `{} {}`} {
		rec := do(router, http.MethodPost, "/auth/v1/signup", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestResendRateLimited(t *testing.T) {
	h, router := newServer(t, checkintest.WithConfig(func(cfg *checkin.Config) {
		cfg.Limits.EnableIdentifierThrottle = true
		cfg.Limits.Resend = checkin.RateLimit{Limit: 1, Window: time.Minute}
	}))

	rec := do(router, http.MethodPost, "/auth/v1/signup", `{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d", rec.Code)
	}

	body := `{"email":"` + testEmail + `","type":"signup"}`
	if rec := do(router, http.MethodPost, "/auth/v1/resend", body); rec.Code != http.StatusOK {
		t.Fatalf("first resend: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if h.Sender.Count(testEmail) != 2 {
		t.Fatalf("expected two codes sent, got %d", h.Sender.Count(testEmail))
	}

	rec = do(router, http.MethodPost, "/auth/v1/resend", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second resend: expected 429, got %d", rec.Code)
	}
	if msg, _ := decodeError(t, rec); msg != checkin.ErrOverEmailSendRateLimit.Message {
		t.Fatalf("unexpected rate limit message %q", msg)
	}
}

func TestBackendFailureIsGeneric(t *testing.T) {
	h, router := newServer(t)
	h.Mini.SetError("LOADING Redis is loading the dataset in memory")

	rec := do(router, http.MethodPost, "/auth/v1/signup", `{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg, _ := decodeError(t, rec); msg != httpapi.MessageUnexpected {
		t.Fatalf("backend details must not leak, got %q", msg)
	}
}

func TestPasswordSignInAndLogout(t *testing.T) {
	h, router := newServer(t)
	signupAndVerify(t, h, router)

	rec := do(router, http.MethodPost, "/auth/v1/token", `{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("token: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)

	rec = do(router, http.MethodPost, "/auth/v1/logout", "", cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("logout must redirect to landing, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if cleared := sessionCookie(t, rec); cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("logout must clear the cookie, got %+v", cleared)
	}

	rec = do(router, http.MethodGet, "/dashboard", "", cookie)
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/" {
		t.Fatalf("revoked session must not reach the dashboard, got %d", rec.Code)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	_, router := newServer(t)

	rec := do(router, http.MethodPost, "/auth/v1/logout", "", &http.Cookie{Name: middleware.DefaultCookieName, Value: "garbage"})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestOrganizationsPage(t *testing.T) {
	h, router := newServer(t)
	cookie := signupAndVerify(t, h, router)

	rec := do(router, http.MethodGet, "/organizations", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `data-slug="acm"`) {
		t.Fatalf("expected organization listing, got %q", rec.Body.String())
	}
}

func TestRequestIDEchoed(t *testing.T) {
	_, router := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rec = do(router, http.MethodGet, "/", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}
