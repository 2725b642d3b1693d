package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Institution.Domain != "ufl.edu" || cfg.Mail.Mode != "log" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OTP.MaxAttempts != 5 || cfg.OTP.TTL != time.Hour {
		t.Fatalf("unexpected otp defaults %+v", cfg.OTP)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "checkin.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 5s
redis:
  addr: "redis:6379"
log:
  level: debug
  format: console
otp:
  ttl: 30m
limits:
  resend_limit: 2
  resend_window: 10m
`)
	t.Setenv("CHECKIN_REDIS_ADDR", "10.0.0.5:6379")
	t.Setenv("CHECKIN_OTP_MAX_ATTEMPTS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Fatalf("file layer not applied: %+v", cfg.Server)
	}
	if cfg.Redis.Addr != "10.0.0.5:6379" {
		t.Fatalf("env must override file, got %q", cfg.Redis.Addr)
	}
	if cfg.OTP.TTL != 30*time.Minute || cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("unexpected otp %+v", cfg.OTP)
	}
	if cfg.Limits.ResendLimit != 2 || cfg.Limits.ResendWindow != 10*time.Minute {
		t.Fatalf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Server.CookieName != "checkin-session" {
		t.Fatalf("untouched defaults must survive, got %q", cfg.Server.CookieName)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "checkin.yaml", "server:\n  adress: \":9000\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server addr"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"bad mail mode", func(c *Config) { c.Mail.Mode = "pigeon" }, "mail mode"},
		{"secret and keys", func(c *Config) { c.Session.Secret = "s"; c.Session.PrivateKeyFile = "k" }, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestEngineConfigHS256(t *testing.T) {
	cfg := Default()
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Limits.LockoutThreshold = 0
	cfg.Metrics.Enabled = true

	engine, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if engine.Session.SigningMethod != "hs256" || string(engine.Session.PrivateKey) != cfg.Session.Secret {
		t.Fatalf("unexpected session config %+v", engine.Session)
	}
	if engine.Limits.LockoutEnabled {
		t.Fatal("zero threshold must disable lockout")
	}
	if !engine.Metrics.Enabled {
		t.Fatal("metrics flag not carried")
	}
}

func TestEngineConfigEd25519Files(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey failed: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey failed: %v", err)
	}

	cfg := Default()
	cfg.Session.PrivateKeyFile = writeFile(t, "priv.pem", string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})))
	cfg.Session.PublicKeyFile = writeFile(t, "pub.pem", string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})))

	engine, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if engine.Session.SigningMethod != "ed25519" || len(engine.Session.PublicKey) == 0 {
		t.Fatalf("unexpected session config %+v", engine.Session)
	}
}

func TestEngineConfigWithoutKeys(t *testing.T) {
	if _, err := Default().EngineConfig(); err == nil {
		t.Fatal("expected error without session keys")
	}
	if Default().HasSessionKeys() {
		t.Fatal("defaults must not carry keys")
	}
}
