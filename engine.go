package checkin

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin/identity"
	"github.com/ufacm/checkin/internal/audit"
	"github.com/ufacm/checkin/internal/limiters"
	"github.com/ufacm/checkin/internal/stores"
	"github.com/ufacm/checkin/jwt"
	"github.com/ufacm/checkin/password"
	"github.com/ufacm/checkin/session"
)

// Engine is the identity provider. Build one with [New].
type Engine struct {
	config       Config
	validator    *identity.Validator
	identities   *stores.IdentityStore
	challenges   *stores.ChallengeStore
	sessions     *session.Store
	otpLimiter   *limiters.OTPLimiter
	lockout      *limiters.LockoutLimiter
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	sender       CodeSender
	audit        *audit.Dispatcher
	metrics      *Metrics
	logger       zerolog.Logger
	now          func() time.Time
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Validator returns the identity validator bound to the configured
// institution domain.
func (e *Engine) Validator() *identity.Validator {
	if e == nil || e.validator == nil {
		return identity.Default()
	}
	return e.validator
}

// SessionTTL is the lifetime of issued session tokens.
func (e *Engine) SessionTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Session.TTL
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.identities != nil && e.jwtManager != nil && e.passwordHash != nil
}

func userFromRecord(record *stores.IdentityRecord) *User {
	user := &User{
		ID:             record.ID,
		Email:          record.Email,
		EmailConfirmed: record.EmailConfirmed,
		Metadata: UserMetadata{
			FullName:  record.FullName,
			FirstName: record.FirstName,
			LastName:  record.LastName,
		},
		CreatedAt: time.Unix(record.CreatedAt, 0).UTC(),
	}
	if record.EmailConfirmed && record.ConfirmedAt > 0 {
		confirmedAt := time.Unix(record.ConfirmedAt, 0).UTC()
		user.ConfirmedAt = &confirmedAt
	}
	return user
}
