package checkin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ufacm/checkin/otp"
)

// Config is the engine configuration. Start from [DefaultConfig], override
// what you need and pass it to [Builder.WithConfig].
type Config struct {
	Institution InstitutionConfig
	Session     SessionConfig
	OTP         OTPConfig
	Password    PasswordConfig
	Limits      LimitsConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
INSTITUTION CONFIG
====================================
*/

// InstitutionConfig names the email domain every account must belong to.
// The match is case-sensitive.
type InstitutionConfig struct {
	Domain string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session tokens and their server-side records.
type SessionConfig struct {
	TTL           time.Duration
	RedisPrefix   string
	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls one-time confirmation codes.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
LIMITS CONFIG
====================================
*/

// RateLimit is a fixed window: at most Limit calls per Window. A zero value
// disables the throttle.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// LimitsConfig throttles the code flow and locks out repeated password
// failures.
type LimitsConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Signup                   RateLimit
	Resend                   RateLimit
	Verify                   RateLimit

	LockoutEnabled   bool
	LockoutThreshold int
	LockoutDuration  time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the defaults used by [New]. Session keys are left
// empty and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Institution: InstitutionConfig{
			Domain: "ufl.edu",
		},
		Session: SessionConfig{
			TTL:           7 * 24 * time.Hour,
			RedisPrefix:   "cks",
			SigningMethod: "ed25519",
			Issuer:        "checkin",
		},
		OTP: OTPConfig{
			Digits:      otp.Length,
			TTL:         time.Hour,
			MaxAttempts: 5,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Limits: LimitsConfig{
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
			Signup:                   RateLimit{Limit: 5, Window: time.Hour},
			Resend:                   RateLimit{Limit: 3, Window: 15 * time.Minute},
			Verify:                   RateLimit{Limit: 30, Window: 15 * time.Minute},
			LockoutEnabled:           true,
			LockoutThreshold:         10,
			LockoutDuration:          15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.PrivateKey = cloneBytes(cfg.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	// Institution
	domain := c.Institution.Domain
	if domain == "" || strings.ContainsAny(domain, "@ \t\r\n") || strings.HasPrefix(domain, ".") {
		return errors.New("Institution Domain must be a bare domain name")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	switch c.Session.SigningMethod {
	case "ed25519":
		if len(c.Session.PrivateKey) == 0 || len(c.Session.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	case "hs256":
		if len(c.Session.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	default:
		return errors.New("unsupported session signing method")
	}

	// OTP
	if c.OTP.Digits != otp.Length {
		return fmt.Errorf("OTP Digits must be %d", otp.Length)
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.MaxAttempts <= 0 || c.OTP.MaxAttempts > 65535 {
		return errors.New("OTP MaxAttempts must be in 1..65535")
	}

	// Limits
	for name, rl := range map[string]RateLimit{
		"Signup": c.Limits.Signup,
		"Resend": c.Limits.Resend,
		"Verify": c.Limits.Verify,
	} {
		if rl.Limit < 0 || rl.Window < 0 {
			return fmt.Errorf("Limits %s must not be negative", name)
		}
		if rl.Limit > 0 && rl.Window == 0 {
			return fmt.Errorf("Limits %s Window must be > 0 when Limit is set", name)
		}
	}
	if c.Limits.LockoutEnabled && c.Limits.LockoutThreshold <= 0 {
		return errors.New("Limits LockoutThreshold must be > 0 when lockout is enabled")
	}
	if c.Limits.LockoutDuration < 0 {
		return errors.New("Limits LockoutDuration must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
