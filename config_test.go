package checkin

import (
	"context"
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.SigningMethod = "hs256"
	cfg.Session.PrivateKey = []byte(strings.Repeat("k", 32))
	return cfg
}

func TestDefaultConfigNeedsKeysOnly(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without keys must not validate")
	}

	cfg = validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.OTP.Digits != 8 || cfg.OTP.MaxAttempts != 5 || cfg.OTP.TTL != time.Hour {
		t.Fatalf("unexpected OTP defaults: %+v", cfg.OTP)
	}
	if cfg.Institution.Domain != "ufl.edu" {
		t.Fatalf("unexpected institution default %q", cfg.Institution.Domain)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "other institution",
			mutate:    func(c *Config) { c.Institution.Domain = "fsu.edu" },
			wantValid: true,
		},
		{
			name:      "domain with at sign",
			mutate:    func(c *Config) { c.Institution.Domain = "@ufl.edu" },
			wantValid: false,
		},
		{
			name:      "empty domain",
			mutate:    func(c *Config) { c.Institution.Domain = "" },
			wantValid: false,
		},
		{
			name:      "hs256 short secret",
			mutate:    func(c *Config) { c.Session.PrivateKey = []byte("short") },
			wantValid: false,
		},
		{
			name:      "unknown signing method",
			mutate:    func(c *Config) { c.Session.SigningMethod = "rs256" },
			wantValid: false,
		},
		{
			name:      "ed25519 without public key",
			mutate:    func(c *Config) { c.Session.SigningMethod = "ed25519" },
			wantValid: false,
		},
		{
			name:      "zero session ttl",
			mutate:    func(c *Config) { c.Session.TTL = 0 },
			wantValid: false,
		},
		{
			name:      "six digit codes",
			mutate:    func(c *Config) { c.OTP.Digits = 6 },
			wantValid: false,
		},
		{
			name:      "zero attempts",
			mutate:    func(c *Config) { c.OTP.MaxAttempts = 0 },
			wantValid: false,
		},
		{
			name:      "limit without window",
			mutate:    func(c *Config) { c.Limits.Resend = RateLimit{Limit: 3} },
			wantValid: false,
		},
		{
			name:      "throttles disabled",
			mutate:    func(c *Config) { c.Limits.Signup, c.Limits.Resend, c.Limits.Verify = RateLimit{}, RateLimit{}, RateLimit{} },
			wantValid: true,
		},
		{
			name:      "lockout without threshold",
			mutate:    func(c *Config) { c.Limits.LockoutThreshold = 0 },
			wantValid: false,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := validTestConfig()
	out := cloneConfig(cfg)
	out.Session.PrivateKey[0] = 'x'
	if cfg.Session.PrivateKey[0] != 'k' {
		t.Fatal("cloneConfig must not share key bytes")
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	if _, err := New().WithConfig(validTestConfig()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}
}

func TestNilEngineIsNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.GetUser(context.Background(), "token"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if e.AuditDropped() != 0 || len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("nil engine must report empty state")
	}
	e.Close()
}
