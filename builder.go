package checkin

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ufacm/checkin/identity"
	"github.com/ufacm/checkin/internal/audit"
	"github.com/ufacm/checkin/internal/limiters"
	"github.com/ufacm/checkin/internal/stores"
	"github.com/ufacm/checkin/jwt"
	"github.com/ufacm/checkin/password"
	"github.com/ufacm/checkin/session"
)

// Builder assembles an [Engine]. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sender    CodeSender
	auditSink AuditSink
	logger    zerolog.Logger

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSender sets how one-time codes reach the user. It is required.
func (b *Builder) WithSender(sender CodeSender) *Builder {
	b.sender = sender
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the stores, limiters, token
// manager and audit pipeline.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.sender == nil {
		return nil, errors.New("code sender required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cloneConfig(cfg),
		validator:  identity.NewValidator(cfg.Institution.Domain),
		identities: stores.NewIdentityStore(b.redis, ""),
		challenges: stores.NewChallengeStore(b.redis, ""),
		sessions:   session.NewStore(b.redis, cfg.Session.RedisPrefix),
		sender:     b.sender,
		logger:     b.logger,
		now:        time.Now,
	}

	engine.otpLimiter = limiters.NewOTPLimiter(b.redis, limiters.OTPConfig{
		EnableIdentifierThrottle: cfg.Limits.EnableIdentifierThrottle,
		EnableIPThrottle:         cfg.Limits.EnableIPThrottle,
		Signup:                   limiters.Policy(cfg.Limits.Signup),
		Resend:                   limiters.Policy(cfg.Limits.Resend),
		Verify:                   limiters.Policy(cfg.Limits.Verify),
	})
	engine.lockout = limiters.NewLockoutLimiter(b.redis, limiters.LockoutConfig{
		Enabled:   cfg.Limits.LockoutEnabled,
		Threshold: cfg.Limits.LockoutThreshold,
		Duration:  cfg.Limits.LockoutDuration,
	})
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Session.PrivateKey),
		PublicKey:     cloneBytes(cfg.Session.PublicKey),
		Issuer:        cfg.Session.Issuer,
		Audience:      cfg.Session.Audience,
		KeyID:         cfg.Session.KeyID,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
