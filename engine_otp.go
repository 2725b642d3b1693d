package checkin

import (
	"context"
	"errors"

	"github.com/ufacm/checkin/internal"
	"github.com/ufacm/checkin/internal/stores"
	"github.com/ufacm/checkin/otp"
)

// VerifyOTP consumes the outstanding code for email. On success the identity
// is marked confirmed and a session is issued. A wrong, expired or already
// used code yields [ErrOTPInvalid]; after OTP.MaxAttempts wrong guesses the
// code is discarded and only a resend helps.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string, kind OTPType) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	sess, err := e.verifyOTP(ctx, email, code, kind)
	if err != nil {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerify, false, "", email, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerify, true, sess.User.ID, email, "", nil, nil)
	return sess, nil
}

func (e *Engine) verifyOTP(ctx context.Context, email, code string, kind OTPType) (*Session, error) {
	if kind != OTPSignup {
		return nil, ErrOTPTypeUnsupported
	}
	if !otp.IsCode(code) {
		return nil, ErrOTPInvalid
	}
	if err := e.throttle(ctx, "verify", e.otpLimiter.CheckVerify, email, ErrOverRequestRateLimit); err != nil {
		return nil, err
	}

	_, err := e.challenges.Consume(ctx, uint8(kind), email, internal.HashCode(email, code), e.config.OTP.MaxAttempts)
	switch {
	case err == nil:
	case errors.Is(err, stores.ErrChallengeAttemptsExceeded):
		e.metricInc(MetricOTPAttemptsExceeded)
		return nil, ErrOTPInvalid
	case errors.Is(err, stores.ErrChallengeNotFound), errors.Is(err, stores.ErrChallengeCodeMismatch):
		return nil, ErrOTPInvalid
	default:
		return nil, storeError(err)
	}

	record, err := e.identities.MarkConfirmed(ctx, email, e.now().Unix())
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(err)
	}

	return e.issueSession(ctx, record)
}

// ResendOTP issues a fresh code for an unconfirmed identity and invalidates
// the previous one. Unknown and already confirmed addresses succeed without
// sending anything so the call cannot be used to probe for accounts.
func (e *Engine) ResendOTP(ctx context.Context, email string, kind OTPType) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	err := e.resendOTP(ctx, email, kind)
	if err == nil {
		e.metricInc(MetricOTPResend)
	}
	e.emitAudit(ctx, auditEventOTPResend, err == nil, "", email, "", err, nil)
	return err
}

func (e *Engine) resendOTP(ctx context.Context, email string, kind OTPType) error {
	if kind != OTPSignup {
		return ErrOTPTypeUnsupported
	}
	if !e.validator.MatchEmail(email) {
		return ErrEmailAddressInvalid
	}
	if err := e.throttle(ctx, "resend", e.otpLimiter.CheckResend, email, ErrOverEmailSendRateLimit); err != nil {
		return err
	}

	record, err := e.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			e.logger.Debug().Str("email", email).Msg("checkin: resend for unknown address ignored")
			return nil
		}
		return storeError(err)
	}
	if record.EmailConfirmed {
		return nil
	}

	return e.issueCode(ctx, record, kind)
}

// AdminGenerateLink issues and sends a code of the given kind to an existing
// unconfirmed identity.
func (e *Engine) AdminGenerateLink(ctx context.Context, kind OTPType, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	record, err := e.adminGenerateLink(ctx, kind, email)
	if err != nil {
		e.emitAudit(ctx, auditEventAdminGenerateLink, false, "", email, "", err, nil)
		return err
	}

	e.metricInc(MetricAdminGenerateLink)
	e.emitAudit(ctx, auditEventAdminGenerateLink, true, record.ID, email, "", nil, nil)
	return nil
}

func (e *Engine) adminGenerateLink(ctx context.Context, kind OTPType, email string) (*stores.IdentityRecord, error) {
	if kind != OTPSignup {
		return nil, ErrOTPTypeUnsupported
	}

	record, err := e.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError(err)
	}
	if record.EmailConfirmed {
		return nil, ErrUserAlreadyRegistered
	}

	if err := e.issueCode(ctx, record, kind); err != nil {
		return nil, err
	}
	return record, nil
}

// issueCode replaces any outstanding code of the same kind, then hands the
// new code to the sender. Only the hash is stored.
func (e *Engine) issueCode(ctx context.Context, record *stores.IdentityRecord, kind OTPType) error {
	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return storeError(err)
	}

	challenge := &stores.ChallengeRecord{
		UserID:    record.ID,
		CodeHash:  internal.HashCode(record.Email, code),
		ExpiresAt: e.now().Add(e.config.OTP.TTL).Unix(),
		Kind:      uint8(kind),
	}
	if err := e.challenges.Save(ctx, record.Email, challenge, e.config.OTP.TTL); err != nil {
		return storeError(err)
	}

	if err := e.sender.SendCode(ctx, record.Email, code, kind); err != nil {
		e.metricInc(MetricOTPSendFailure)
		e.logger.Error().Err(err).Str("email", record.Email).Stringer("type", kind).Msg("checkin: otp delivery failed")
		return ErrEmailSendFailed
	}

	e.metricInc(MetricOTPIssued)
	return nil
}
