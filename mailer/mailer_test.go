package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/ufacm/checkin"
)

type captureDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

func testConfig() SMTPConfig {
	return SMTPConfig{Host: "smtp.example.test", Port: 587, From: "noreply@acm.ufl.edu", AppName: "UF Check-In"}
}

func TestSMTPConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SMTPConfig)
		ok     bool
	}{
		{"valid", func(*SMTPConfig) {}, true},
		{"with credentials", func(c *SMTPConfig) { c.Username, c.Password = "u", "p" }, true},
		{"no host", func(c *SMTPConfig) { c.Host = "" }, false},
		{"no port", func(c *SMTPConfig) { c.Port = 0 }, false},
		{"no from", func(c *SMTPConfig) { c.From = "" }, false},
		{"half credentials", func(c *SMTPConfig) { c.Username = "u" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoadSMTPConfigFromEnv(t *testing.T) {
	t.Setenv("CHECKIN_SMTP_HOST", "relay.ufl.edu")
	t.Setenv("CHECKIN_SMTP_FROM", "checkin@ufl.edu")

	cfg, err := LoadSMTPConfig()
	if err != nil {
		t.Fatalf("LoadSMTPConfig failed: %v", err)
	}
	if cfg.Host != "relay.ufl.edu" || cfg.From != "checkin@ufl.edu" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Port != 587 || cfg.AppName != "UF Check-In" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestSMTPSenderSendsCode(t *testing.T) {
	d := &captureDialer{}
	s := &SMTPSender{config: testConfig(), dialer: d}

	if err := s.SendCode(context.Background(), "albert@ufl.edu", "12345678", checkin.OTPSignup); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}
	if len(d.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(d.messages))
	}

	msg := d.messages[0]
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "albert@ufl.edu" {
		t.Fatalf("unexpected recipient %v", got)
	}
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != "UF Check-In verification code" {
		t.Fatalf("unexpected subject %v", got)
	}

	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !strings.Contains(raw.String(), "12345678") {
		t.Fatal("message body must contain the code")
	}
}

func TestSMTPSenderErrors(t *testing.T) {
	d := &captureDialer{err: errors.New("535 authentication failed")}
	s := &SMTPSender{config: testConfig(), dialer: d}

	if err := s.SendCode(context.Background(), "albert@ufl.edu", "12345678", checkin.OTPSignup); err == nil {
		t.Fatal("expected dial failure")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.err = nil
	if err := s.SendCode(ctx, "albert@ufl.edu", "12345678", checkin.OTPSignup); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(d.messages) != 0 {
		t.Fatal("cancelled send must not dial")
	}
}

func TestNewSMTPSenderRejectsInvalidConfig(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))

	if err := s.SendCode(context.Background(), "albert@ufl.edu", "87654321", checkin.OTPSignup); err != nil {
		t.Fatalf("SendCode failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"code":"87654321"`) || !strings.Contains(out, `"kind":"signup"`) {
		t.Fatalf("unexpected log line %q", out)
	}
}
