package checkin

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ufacm/checkin/identity"
	"github.com/ufacm/checkin/internal/limiters"
	"github.com/ufacm/checkin/internal/stores"
)

// SignUp registers an unconfirmed identity and emails it a signup code.
// Signing up again with the address of an unconfirmed identity issues a
// fresh code instead of failing. redirectTo is where the confirmed user is
// sent next and is recorded with the audit event.
func (e *Engine) SignUp(ctx context.Context, email, password, redirectTo string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	user, err := e.signUp(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyRegistered) {
			e.metricInc(MetricSignupDuplicate)
		} else {
			e.metricInc(MetricSignupFailure)
		}
		e.emitAudit(ctx, auditEventSignup, false, "", email, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, user.ID, email, "", nil, func() map[string]string {
		if redirectTo == "" {
			return nil
		}
		return map[string]string{
			"redirect_to": redirectTo,
		}
	})
	return user, nil
}

func (e *Engine) signUp(ctx context.Context, email, password string) (*User, error) {
	if !e.validator.MatchEmail(email) {
		return nil, ErrEmailAddressInvalid
	}
	if utf8.RuneCountInString(password) < identity.MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if err := e.throttle(ctx, "signup", e.otpLimiter.CheckSignup, email, ErrOverEmailSendRateLimit); err != nil {
		return nil, err
	}

	existing, err := e.identities.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.EmailConfirmed {
			return nil, ErrUserAlreadyRegistered
		}
		if err := e.issueCode(ctx, existing, OTPSignup); err != nil {
			return nil, err
		}
		return userFromRecord(existing), nil
	case !errors.Is(err, stores.ErrIdentityNotFound):
		return nil, storeError(err)
	}

	record, err := e.createIdentity(ctx, CreateUserInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := e.issueCode(ctx, record, OTPSignup); err != nil {
		return nil, err
	}
	return userFromRecord(record), nil
}

// AdminCreateUser creates an identity without sending anything. It is meant
// for trusted server-side callers. The institution rule and password floor
// still apply; EmailConfirmed is stored as given.
func (e *Engine) AdminCreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var (
		record *stores.IdentityRecord
		err    error
	)
	switch {
	case !e.validator.MatchEmail(in.Email):
		err = ErrEmailAddressInvalid
	case utf8.RuneCountInString(in.Password) < identity.MinPasswordLength:
		err = ErrWeakPassword
	default:
		record, err = e.createIdentity(ctx, in)
	}
	if err != nil {
		e.emitAudit(ctx, auditEventAdminCreateUser, false, "", in.Email, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricAdminCreateUser)
	e.emitAudit(ctx, auditEventAdminCreateUser, true, record.ID, record.Email, "", nil, func() map[string]string {
		return map[string]string{
			"email_confirmed": fmt.Sprint(record.EmailConfirmed),
		}
	})
	return userFromRecord(record), nil
}

func (e *Engine) createIdentity(ctx context.Context, in CreateUserInput) (*stores.IdentityRecord, error) {
	hash, err := e.passwordHash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("checkin: hash password: %w", err)
	}

	now := e.now().Unix()
	record := &stores.IdentityRecord{
		ID:             uuid.NewString(),
		Email:          in.Email,
		PasswordHash:   hash,
		FullName:       in.Metadata.FullName,
		FirstName:      in.Metadata.FirstName,
		LastName:       in.Metadata.LastName,
		EmailConfirmed: in.EmailConfirmed,
		CreatedAt:      now,
	}
	if in.EmailConfirmed {
		record.ConfirmedAt = now
	}

	if err := e.identities.Create(ctx, record); err != nil {
		if errors.Is(err, stores.ErrIdentityExists) {
			return nil, ErrUserAlreadyRegistered
		}
		return nil, storeError(err)
	}
	return record, nil
}

func (e *Engine) throttle(
	ctx context.Context,
	scope string,
	check func(ctx context.Context, identifier, ip string) error,
	email string,
	limited error,
) error {
	err := check(ctx, email, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiters.ErrOTPRateLimited):
		e.emitRateLimit(ctx, scope, email)
		return limited
	default:
		return storeError(err)
	}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
