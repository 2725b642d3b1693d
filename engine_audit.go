package checkin

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignup            = "signup"
	auditEventOTPVerify         = "otp_verify"
	auditEventOTPResend         = "otp_resend"
	auditEventSignIn            = "signin"
	auditEventSignOut           = "signout"
	auditEventAdminCreateUser   = "admin_create_user"
	auditEventAdminGenerateLink = "admin_generate_link"
	auditEventRateLimit         = "rate_limit"
)

const (
	auditErrUnavailable = "backend_unavailable"
	auditErrInternal    = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, email string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimit, false, "", email, "", nil, func() map[string]string {
		return map[string]string{
			"scope": scope,
		}
	})
}

func auditErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := AsProviderError(err); ok {
		return pe.Code
	}
	if errors.Is(err, ErrUnavailable) {
		return auditErrUnavailable
	}
	return auditErrInternal
}
