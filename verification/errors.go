package verification

import (
	"errors"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/identity"
)

var (
	// ErrBusy is returned when an operation of the same flow is still in flight.
	ErrBusy = errors.New("verification: operation in flight")
	// ErrNotAwaitingCode is returned by code operations outside the confirmation step.
	ErrNotAwaitingCode = errors.New("verification: not awaiting a code")
	// ErrInvalidCode is returned for codes that are not exactly eight digits.
	ErrInvalidCode = errors.New("verification: code must be 8 digits")
	// ErrTooManyAttempts is returned once the per-code attempt budget is spent.
	ErrTooManyAttempts = errors.New("verification: too many attempts")
	// ErrCancelled is returned to a caller whose response arrived after Cancel.
	ErrCancelled = errors.New("verification: cancelled")
)

const (
	MessageUnexpected      = "An unexpected error occurred"
	MessageInvalidCode     = "Please enter the 8-digit code"
	MessageTooManyAttempts = "Too many attempts. Request a new code."
	NoticeResent           = "Code resent! Check your email."
	NoticeResendFailed     = "Failed to resend code"
)

// UserMessage converts err into the text shown to the user. Validation and
// provider messages pass through verbatim; anything else is generic.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *identity.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	if perr, ok := checkin.AsProviderError(err); ok && perr.Message != "" {
		return perr.Message
	}

	switch {
	case errors.Is(err, ErrInvalidCode):
		return MessageInvalidCode
	case errors.Is(err, ErrTooManyAttempts):
		return MessageTooManyAttempts
	}
	return MessageUnexpected
}
