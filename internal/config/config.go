// Package config resolves the runtime configuration of the check-in
// binaries: defaults, then an optional YAML file, then CHECKIN_* variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ufacm/checkin"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CHECKIN_"

type Config struct {
	Server      ServerConfig      `yaml:"server" envPrefix:"SERVER_"`
	Provision   ProvisionConfig   `yaml:"provision" envPrefix:"PROVISION_"`
	Redis       RedisConfig       `yaml:"redis" envPrefix:"REDIS_"`
	Log         LogConfig         `yaml:"log" envPrefix:"LOG_"`
	Mail        MailConfig        `yaml:"mail" envPrefix:"MAIL_"`
	Institution InstitutionConfig `yaml:"institution" envPrefix:"INSTITUTION_"`
	Session     SessionConfig     `yaml:"session" envPrefix:"SESSION_"`
	OTP         OTPConfig         `yaml:"otp" envPrefix:"OTP_"`
	Limits      LimitsConfig      `yaml:"limits" envPrefix:"LIMITS_"`
	Metrics     MetricsConfig     `yaml:"metrics" envPrefix:"METRICS_"`
	Audit       AuditConfig       `yaml:"audit" envPrefix:"AUDIT_"`
	Pages       PagesConfig       `yaml:"pages" envPrefix:"PAGES_"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	CookieName      string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	CookieSecure    bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
}

type ProvisionConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MailConfig selects the code sender. SMTP settings themselves are read by
// the mailer package from CHECKIN_SMTP_* variables.
type MailConfig struct {
	Mode string `yaml:"mode" env:"MODE"` // "log" or "smtp"
}

type InstitutionConfig struct {
	Domain string `yaml:"domain" env:"DOMAIN"`
}

// SessionConfig selects the token keys. Secret selects HS256; otherwise both
// Ed25519 PEM files are required.
type SessionConfig struct {
	TTL            time.Duration `yaml:"ttl" env:"TTL"`
	Secret         string        `yaml:"secret" env:"SECRET"`
	PrivateKeyFile string        `yaml:"private_key_file" env:"PRIVATE_KEY_FILE"`
	PublicKeyFile  string        `yaml:"public_key_file" env:"PUBLIC_KEY_FILE"`
	Issuer         string        `yaml:"issuer" env:"ISSUER"`
}

type OTPConfig struct {
	TTL         time.Duration `yaml:"ttl" env:"TTL"`
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

type LimitsConfig struct {
	SignupLimit      int           `yaml:"signup_limit" env:"SIGNUP_LIMIT"`
	SignupWindow     time.Duration `yaml:"signup_window" env:"SIGNUP_WINDOW"`
	ResendLimit      int           `yaml:"resend_limit" env:"RESEND_LIMIT"`
	ResendWindow     time.Duration `yaml:"resend_window" env:"RESEND_WINDOW"`
	VerifyLimit      int           `yaml:"verify_limit" env:"VERIFY_LIMIT"`
	VerifyWindow     time.Duration `yaml:"verify_window" env:"VERIFY_WINDOW"`
	LockoutThreshold int           `yaml:"lockout_threshold" env:"LOCKOUT_THRESHOLD"`
	LockoutDuration  time.Duration `yaml:"lockout_duration" env:"LOCKOUT_DURATION"`
}

// MetricsConfig enables the engine counters. An empty Addr keeps them
// in-process only.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	Addr       string `yaml:"addr" env:"ADDR"`
	Histograms bool   `yaml:"histograms" env:"HISTOGRAMS"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"BUFFER_SIZE"`
}

type PagesConfig struct {
	// OrganizationsFile is a YAML list of {id, name, slug} shown read-only.
	OrganizationsFile string `yaml:"organizations_file" env:"ORGANIZATIONS_FILE"`
}

func Default() Config {
	engine := checkin.DefaultConfig()

	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			CookieName:      "checkin-session",
			CookieSecure:    true,
		},
		Provision: ProvisionConfig{Addr: ":8081"},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Log:       LogConfig{Level: "info", Format: "json"},
		Mail:      MailConfig{Mode: "log"},
		Institution: InstitutionConfig{
			Domain: engine.Institution.Domain,
		},
		Session: SessionConfig{
			TTL:    engine.Session.TTL,
			Issuer: engine.Session.Issuer,
		},
		OTP: OTPConfig{
			TTL:         engine.OTP.TTL,
			MaxAttempts: engine.OTP.MaxAttempts,
		},
		Limits: LimitsConfig{
			SignupLimit:      engine.Limits.Signup.Limit,
			SignupWindow:     engine.Limits.Signup.Window,
			ResendLimit:      engine.Limits.Resend.Limit,
			ResendWindow:     engine.Limits.Resend.Window,
			VerifyLimit:      engine.Limits.Verify.Limit,
			VerifyWindow:     engine.Limits.Verify.Window,
			LockoutThreshold: engine.Limits.LockoutThreshold,
			LockoutDuration:  engine.Limits.LockoutDuration,
		},
		Audit: AuditConfig{BufferSize: engine.Audit.BufferSize},
	}
}

// Load resolves defaults -> file -> env. An empty path skips the file layer;
// a path that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the binaries own. Engine settings are
// validated by checkin.Config.Validate when the engine is built.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server shutdown timeout must be > 0")
	}
	if c.Server.CookieName == "" {
		return errors.New("server cookie name must not be empty")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Log.Format)
	}
	switch c.Mail.Mode {
	case "log", "smtp":
	default:
		return fmt.Errorf("mail mode must be log or smtp, got %q", c.Mail.Mode)
	}
	if c.Session.Secret != "" && (c.Session.PrivateKeyFile != "" || c.Session.PublicKeyFile != "") {
		return errors.New("session secret and key files are mutually exclusive")
	}
	return nil
}

// HasSessionKeys reports whether a signing key has been configured.
func (c Config) HasSessionKeys() bool {
	return c.Session.Secret != "" || (c.Session.PrivateKeyFile != "" && c.Session.PublicKeyFile != "")
}

// EngineConfig maps the file settings onto an engine configuration, reading
// key files from disk.
func (c Config) EngineConfig() (checkin.Config, error) {
	cfg := checkin.DefaultConfig()

	cfg.Institution.Domain = c.Institution.Domain
	cfg.Session.TTL = c.Session.TTL
	cfg.Session.Issuer = c.Session.Issuer

	switch {
	case c.Session.Secret != "":
		cfg.Session.SigningMethod = "hs256"
		cfg.Session.PrivateKey = []byte(c.Session.Secret)
	case c.Session.PrivateKeyFile != "" && c.Session.PublicKeyFile != "":
		priv, err := os.ReadFile(c.Session.PrivateKeyFile)
		if err != nil {
			return checkin.Config{}, fmt.Errorf("read session private key: %w", err)
		}
		pub, err := os.ReadFile(c.Session.PublicKeyFile)
		if err != nil {
			return checkin.Config{}, fmt.Errorf("read session public key: %w", err)
		}
		cfg.Session.SigningMethod = "ed25519"
		cfg.Session.PrivateKey = priv
		cfg.Session.PublicKey = pub
	default:
		return checkin.Config{}, errors.New("session keys are not configured")
	}

	cfg.OTP.TTL = c.OTP.TTL
	cfg.OTP.MaxAttempts = c.OTP.MaxAttempts

	cfg.Limits.Signup = checkin.RateLimit{Limit: c.Limits.SignupLimit, Window: c.Limits.SignupWindow}
	cfg.Limits.Resend = checkin.RateLimit{Limit: c.Limits.ResendLimit, Window: c.Limits.ResendWindow}
	cfg.Limits.Verify = checkin.RateLimit{Limit: c.Limits.VerifyLimit, Window: c.Limits.VerifyWindow}
	cfg.Limits.LockoutEnabled = c.Limits.LockoutThreshold > 0
	cfg.Limits.LockoutThreshold = c.Limits.LockoutThreshold
	cfg.Limits.LockoutDuration = c.Limits.LockoutDuration

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Histograms

	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize

	if err := cfg.Validate(); err != nil {
		return checkin.Config{}, fmt.Errorf("engine config: %w", err)
	}
	return cfg, nil
}
