package verification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/checkintest"
	"github.com/ufacm/checkin/verification"
)

func TestSignupConfirmationEndToEnd(t *testing.T) {
	h := checkintest.New(t)
	ctx := context.Background()

	s, err := verification.New(verification.Options{
		Provider:   verification.FromEngine(h.Engine),
		RedirectTo: "/dashboard",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	form := verification.SignupForm{Email: "albert@ufl.edu", Password: "swamp-pass", ConfirmPassword: "swamp-pass"}
	if err := s.BeginSignup(ctx, form); err != nil {
		t.Fatalf("BeginSignup failed: %v", err)
	}
	if snap := s.Snapshot(); snap.State != verification.AwaitingCode {
		t.Fatalf("expected AwaitingCode, got %v", snap.State)
	}

	code := h.Sender.LastCode("albert@ufl.edu")
	wrong := "00000000"
	if code == wrong {
		wrong = "11111111"
	}

	if err := s.VerifyCode(ctx, wrong); !errors.Is(err, checkin.ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != verification.AwaitingCode || snap.Error == "" {
		t.Fatalf("wrong code must keep the step open with an error: %+v", snap)
	}

	ev, err := s.Paste(ctx, code)
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if !ev.Submit {
		t.Fatal("expected paste to auto-submit")
	}
	if snap := s.Snapshot(); snap.State != verification.Verified {
		t.Fatalf("expected Verified, got %+v", snap)
	}

	sess, ok := s.Result()
	if !ok {
		t.Fatal("expected a session after verification")
	}
	user, err := h.Engine.GetUser(ctx, sess.AccessToken)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !user.EmailConfirmed || user.Email != "albert@ufl.edu" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestResendIssuesFreshCodeEndToEnd(t *testing.T) {
	h := checkintest.New(t)
	ctx := context.Background()

	s, err := verification.New(verification.Options{Provider: verification.FromEngine(h.Engine)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	form := verification.SignupForm{Email: "alberta@ufl.edu", Password: "swamp-pass", ConfirmPassword: "swamp-pass"}
	if err := s.BeginSignup(ctx, form); err != nil {
		t.Fatalf("BeginSignup failed: %v", err)
	}

	if err := s.Resend(ctx); err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if h.Sender.Count("alberta@ufl.edu") != 2 {
		t.Fatalf("expected two codes sent, got %d", h.Sender.Count("alberta@ufl.edu"))
	}
	if snap := s.Snapshot(); snap.Notice != verification.NoticeResent {
		t.Fatalf("unexpected notice %q", snap.Notice)
	}

	if err := s.VerifyCode(ctx, h.Sender.LastCode("alberta@ufl.edu")); err != nil {
		t.Fatalf("VerifyCode with fresh code failed: %v", err)
	}
}

func TestDuplicateSignupMessageEndToEnd(t *testing.T) {
	h := checkintest.New(t)
	h.Confirmed(t, "albert@ufl.edu", "swamp-pass")

	s, err := verification.New(verification.Options{Provider: verification.FromEngine(h.Engine)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	form := verification.SignupForm{Email: "albert@ufl.edu", Password: "swamp-pass", ConfirmPassword: "swamp-pass"}
	if err := s.BeginSignup(context.Background(), form); !errors.Is(err, checkin.ErrUserAlreadyRegistered) {
		t.Fatalf("expected ErrUserAlreadyRegistered, got %v", err)
	}
	if snap := s.Snapshot(); snap.State != verification.Idle || snap.Error != "User already registered" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
