package provision_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/checkintest"
	"github.com/ufacm/checkin/provision"
)

func TestProvisionAgainstEngine(t *testing.T) {
	h := checkintest.New(t)
	p, err := provision.New(h.Engine)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	account, err := p.Provision(context.Background(), provision.Request{
		Email:     "albert@ufl.edu",
		Password:  "swamp-pass",
		FirstName: "albert",
		LastName:  "GATOR",
	})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if account.FullName != "Albert Gator" {
		t.Fatalf("unexpected full name %q", account.FullName)
	}

	code := h.Sender.LastCode("albert@ufl.edu")
	if code == "" {
		t.Fatal("expected a signup code to be dispatched")
	}

	if _, err := h.Engine.SignInWithPassword(context.Background(), "albert@ufl.edu", "swamp-pass"); !errors.Is(err, checkin.ErrEmailNotConfirmed) {
		t.Fatalf("account must start unconfirmed, got %v", err)
	}

	sess, err := h.Engine.VerifyOTP(context.Background(), "albert@ufl.edu", code, checkin.OTPSignup)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if sess.User.ID != account.ID || sess.User.Metadata.FirstName != "Albert" {
		t.Fatalf("unexpected session user %+v", sess.User)
	}
}

func TestProvisionSurvivesDispatchFailure(t *testing.T) {
	h := checkintest.New(t)
	h.Sender.Fail(checkintest.ErrSendFailed)

	p, err := provision.New(h.Engine)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	body := `{"email":"albert@ufl.edu","password":"swamp-pass","firstName":"Albert","lastName":"Gator"}`
	rec := httptest.NewRecorder()
	p.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, provision.Path, strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite dispatch failure, got %d %s", rec.Code, rec.Body.String())
	}

	h.Sender.Fail(nil)
	if err := h.Engine.ResendOTP(context.Background(), "albert@ufl.edu", checkin.OTPSignup); err != nil {
		t.Fatalf("ResendOTP failed: %v", err)
	}
	if h.Sender.LastCode("albert@ufl.edu") == "" {
		t.Fatal("resend must deliver a code")
	}

	rec = httptest.NewRecorder()
	p.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, provision.Path, strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "User already registered") {
		t.Fatalf("expected duplicate refusal, got %d %s", rec.Code, rec.Body.String())
	}
}
