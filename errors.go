package checkin

import "errors"

// ProviderError is a failure whose Message is meant for the end user. Code is
// a stable machine-readable identifier.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// AsProviderError reports whether err carries a [*ProviderError].
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

var (
	ErrUserAlreadyRegistered = &ProviderError{Code: "user_already_exists", Message: "User already registered"}
	ErrEmailAddressInvalid   = &ProviderError{Code: "email_address_invalid", Message: "Email address is invalid"}
	ErrWeakPassword          = &ProviderError{Code: "weak_password", Message: "Password should be at least 6 characters."}
	ErrOTPInvalid            = &ProviderError{Code: "otp_expired", Message: "Token has expired or is invalid"}
	ErrOTPTypeUnsupported    = &ProviderError{Code: "validation_failed", Message: "Unsupported verification type"}
	ErrEmailNotConfirmed     = &ProviderError{Code: "email_not_confirmed", Message: "Email not confirmed"}
	ErrInvalidCredentials    = &ProviderError{Code: "invalid_credentials", Message: "Invalid login credentials"}
	ErrUserLocked            = &ProviderError{Code: "user_locked", Message: "Too many failed sign-in attempts. Try again later."}
	ErrUserNotFound          = &ProviderError{Code: "user_not_found", Message: "User not found"}
	ErrInvalidToken          = &ProviderError{Code: "bad_jwt", Message: "Invalid JWT"}
	ErrSessionNotFound       = &ProviderError{Code: "session_not_found", Message: "Auth session missing!"}
	ErrEmailSendFailed       = &ProviderError{Code: "email_send_failed", Message: "Error sending confirmation email"}

	ErrOverEmailSendRateLimit = &ProviderError{Code: "over_email_send_rate_limit", Message: "Email rate limit exceeded"}
	ErrOverRequestRateLimit   = &ProviderError{Code: "over_request_rate_limit", Message: "Request rate limit reached"}
)

var (
	// ErrUnavailable means a backend (Redis, the code sender) failed. It is
	// not a ProviderError and must not be shown verbatim.
	ErrUnavailable = errors.New("identity backend unavailable")
	// ErrEngineNotReady is returned by methods called on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// IsRateLimited reports whether err is one of the throttling errors.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrOverEmailSendRateLimit) || errors.Is(err, ErrOverRequestRateLimit)
}
