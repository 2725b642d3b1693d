// Package checkintest builds engines backed by an in-memory Redis for tests
// of packages that sit on top of the identity provider.
package checkintest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ufacm/checkin"
)

// Secret is the HS256 key used by Config.
var Secret = []byte("checkintest-secret-0123456789abcdef")

// CaptureSender records every code it is asked to send.
type CaptureSender struct {
	mu    sync.Mutex
	codes map[string][]string
	fail  error
}

func NewCaptureSender() *CaptureSender {
	return &CaptureSender{codes: make(map[string][]string)}
}

func (s *CaptureSender) SendCode(_ context.Context, email, code string, _ checkin.OTPType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	s.codes[email] = append(s.codes[email], code)
	return nil
}

// Fail makes subsequent sends return err. Pass nil to recover.
func (s *CaptureSender) Fail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// LastCode returns the most recent code sent to email, or "".
func (s *CaptureSender) LastCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := s.codes[email]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

// Count returns how many codes were sent to email.
func (s *CaptureSender) Count(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes[email])
}

// ErrSendFailed is a ready-made delivery failure for CaptureSender.Fail.
var ErrSendFailed = errors.New("smtp: connection refused")

// Harness bundles an engine with the fakes behind it.
type Harness struct {
	Engine *checkin.Engine
	Redis  *redis.Client
	Mini   *miniredis.Miniredis
	Sender *CaptureSender
}

// Config returns a fast engine configuration: HS256 keys, the cheapest
// Argon2 parameters the hasher accepts and no throttles. Lockout triggers
// after three failures.
func Config() checkin.Config {
	cfg := checkin.DefaultConfig()
	cfg.Session.SigningMethod = "hs256"
	cfg.Session.PrivateKey = Secret
	cfg.Session.TTL = time.Hour
	cfg.Password = checkin.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Limits = checkin.LimitsConfig{
		LockoutEnabled:   true,
		LockoutThreshold: 3,
		LockoutDuration:  time.Minute,
	}
	return cfg
}

type settings struct {
	mutate []func(*checkin.Config)
	sink   checkin.AuditSink
}

// Option adjusts the harness before the engine is built.
type Option func(*settings)

func WithConfig(mutate func(*checkin.Config)) Option {
	return func(s *settings) {
		s.mutate = append(s.mutate, mutate)
	}
}

// WithAuditSink enables auditing into sink.
func WithAuditSink(sink checkin.AuditSink) Option {
	return func(s *settings) {
		s.sink = sink
		s.mutate = append(s.mutate, func(cfg *checkin.Config) {
			cfg.Audit.Enabled = true
			cfg.Audit.DropIfFull = false
		})
	}
}

// New starts miniredis and builds an engine on it. Everything is torn down
// with t.Cleanup.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()

	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := Config()
	for _, mutate := range st.mutate {
		mutate(&cfg)
	}

	sender := NewCaptureSender()
	engine, err := checkin.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSender(sender).
		WithAuditSink(st.sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &Harness{
		Engine: engine,
		Redis:  rdb,
		Mini:   mr,
		Sender: sender,
	}
}

// Confirmed registers email and confirms it, returning the issued session.
func (h *Harness) Confirmed(t testing.TB, email, password string) *checkin.Session {
	t.Helper()

	ctx := context.Background()
	if _, err := h.Engine.SignUp(ctx, email, password, ""); err != nil {
		t.Fatalf("SignUp(%s) failed: %v", email, err)
	}
	sess, err := h.Engine.VerifyOTP(ctx, email, h.Sender.LastCode(email), checkin.OTPSignup)
	if err != nil {
		t.Fatalf("VerifyOTP(%s) failed: %v", email, err)
	}
	return sess
}
