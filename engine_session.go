package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ufacm/checkin/internal"
	"github.com/ufacm/checkin/internal/stores"
	"github.com/ufacm/checkin/session"
)

// SignInWithPassword verifies a password and issues a session. Unconfirmed
// identities get [ErrEmailNotConfirmed] only after the password matched.
func (e *Engine) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	sess, err := e.signIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrUserLocked) {
			e.metricInc(MetricSignInLocked)
		} else {
			e.metricInc(MetricSignInFailure)
		}
		e.emitAudit(ctx, auditEventSignIn, false, "", email, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignIn, true, sess.User.ID, email, "", nil, nil)
	return sess, nil
}

func (e *Engine) signIn(ctx context.Context, email, password string) (*Session, error) {
	locked, err := e.lockout.Locked(ctx, email)
	if err != nil {
		return nil, storeError(err)
	}
	if locked {
		return nil, ErrUserLocked
	}

	record, err := e.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	ok, err := e.passwordHash.Verify(password, record.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			e.logger.Warn().Err(err).Str("user_id", record.ID).Msg("checkin: password verify failed")
		}
		if _, lerr := e.lockout.RecordFailure(ctx, email); lerr != nil {
			e.logger.Warn().Err(lerr).Msg("checkin: lockout counter unavailable")
		}
		return nil, ErrInvalidCredentials
	}

	if !record.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}
	if err := e.lockout.Reset(ctx, email); err != nil {
		e.logger.Warn().Err(err).Msg("checkin: lockout reset failed")
	}

	return e.issueSession(ctx, record)
}

// GetUser resolves the user behind a session token. The token must verify
// and its server-side session must still exist.
func (e *Engine) GetUser(ctx context.Context, token string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricGetUserLatency, time.Since(start))
		}()
	}

	user, err := e.getUser(ctx, token)
	if err != nil {
		e.metricInc(MetricSessionRejected)
		return nil, err
	}
	return user, nil
}

func (e *Engine) getUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	claims, err := e.jwtManager.ParseSession(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sess, err := e.sessions.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrDecode) {
			return nil, ErrSessionNotFound
		}
		return nil, storeError(err)
	}
	if sess.UserID != claims.UID {
		return nil, ErrInvalidToken
	}

	record, err := e.identities.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(err)
	}
	return userFromRecord(record), nil
}

// SignOut revokes the session named by token. Later GetUser calls with the
// same token fail with [ErrSessionNotFound].
func (e *Engine) SignOut(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseSession(token)
	if err != nil {
		e.emitAudit(ctx, auditEventSignOut, false, "", "", "", ErrInvalidToken, nil)
		return ErrInvalidToken
	}

	if err := e.sessions.Delete(ctx, claims.SID); err != nil && !errors.Is(err, session.ErrDecode) {
		err = storeError(err)
		e.emitAudit(ctx, auditEventSignOut, false, claims.UID, claims.Email, claims.SID, err, nil)
		return err
	}

	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, claims.UID, claims.Email, claims.SID, nil, nil)
	return nil
}

func (e *Engine) issueSession(ctx context.Context, record *stores.IdentityRecord) (*Session, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, storeError(err)
	}

	token, expiresAt, err := e.jwtManager.CreateSession(record.ID, record.Email, sid.String(), record.EmailConfirmed)
	if err != nil {
		return nil, fmt.Errorf("checkin: sign session token: %w", err)
	}

	if err := e.sessions.Save(ctx, &session.Session{
		SessionID:      sid.String(),
		UserID:         record.ID,
		Email:          record.Email,
		EmailConfirmed: record.EmailConfirmed,
		CreatedAt:      e.now().Unix(),
		ExpiresAt:      expiresAt.Unix(),
	}, e.config.Session.TTL); err != nil {
		return nil, storeError(err)
	}

	e.metricInc(MetricSessionCreated)
	return &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        userFromRecord(record),
	}, nil
}
