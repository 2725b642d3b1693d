package identity

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultDomain is the institutional email domain accepted when none is configured.
const DefaultDomain = "ufl.edu"

// MinPasswordLength is the minimum password length, counted in characters.
const MinPasswordLength = 6

// Reason identifies which identity rule rejected an input.
type Reason string

const (
	ReasonInvalidEmailDomain Reason = "invalid_email_domain"
	ReasonPasswordTooShort   Reason = "password_too_short"
	ReasonPasswordMismatch   Reason = "password_mismatch"
	ReasonNameRequired       Reason = "name_required"
	ReasonNameFormatInvalid  Reason = "name_format_invalid"
)

// ValidationError is a user-correctable rejection. Message is safe to show as-is.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any ValidationError carrying the same Reason.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return other.Reason == e.Reason
}

var (
	// ErrInvalidEmailDomain is returned when an address is outside the institutional domain.
	ErrInvalidEmailDomain = &ValidationError{Reason: ReasonInvalidEmailDomain, Message: "Email must end with @" + DefaultDomain}
	// ErrPasswordTooShort is returned for passwords shorter than MinPasswordLength.
	ErrPasswordTooShort = &ValidationError{Reason: ReasonPasswordTooShort, Message: "Password must be at least 6 characters"}
	// ErrPasswordMismatch is returned when the confirmation differs from the password.
	ErrPasswordMismatch = &ValidationError{Reason: ReasonPasswordMismatch, Message: "Passwords do not match"}
	// ErrNameRequired is returned for empty or whitespace-only names.
	ErrNameRequired = &ValidationError{Reason: ReasonNameRequired, Message: "Name is required"}
	// ErrNameFormatInvalid is returned for names with characters outside letters, spaces, hyphens and apostrophes.
	ErrNameFormatInvalid = &ValidationError{Reason: ReasonNameFormatInvalid, Message: "Name can only contain letters, spaces, hyphens, and apostrophes"}
)

var namePattern = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)

// Validator holds the institution-specific email rule. The zero value is not
// usable; construct with NewValidator. A Validator is immutable and safe for
// concurrent use.
type Validator struct {
	domain       string
	emailPattern *regexp.Regexp
	domainErr    *ValidationError
}

// NewValidator returns a Validator for the given domain. An empty domain
// selects DefaultDomain. The domain is matched case-sensitively.
func NewValidator(domain string) *Validator {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		domain = DefaultDomain
	}

	domainErr := ErrInvalidEmailDomain
	if domain != DefaultDomain {
		domainErr = &ValidationError{Reason: ReasonInvalidEmailDomain, Message: "Email must end with @" + domain}
	}

	return &Validator{
		domain:       domain,
		emailPattern: regexp.MustCompile(`^[^\s@]+@` + regexp.QuoteMeta(domain) + `$`),
		domainErr:    domainErr,
	}
}

var defaultValidator = NewValidator(DefaultDomain)

// Default returns the Validator for DefaultDomain.
func Default() *Validator {
	return defaultValidator
}

// Domain returns the institutional domain without the leading "@".
func (v *Validator) Domain() string {
	return v.domain
}

// MatchEmail reports whether value is an institutional address. Unlike
// ValidateEmail, an empty value does not match.
func (v *Validator) MatchEmail(value string) bool {
	return v.emailPattern.MatchString(value)
}

// ValidateEmail checks the institutional domain rule. An empty value is
// accepted so that forms do not flag an untouched field.
func (v *Validator) ValidateEmail(value string) error {
	if value == "" {
		return nil
	}
	if !v.MatchEmail(value) {
		return v.domainErr
	}
	return nil
}

// RequireEmail is ValidateEmail for submission: an empty value is rejected
// with the domain error.
func (v *Validator) RequireEmail(value string) error {
	if !v.MatchEmail(value) {
		return v.domainErr
	}
	return nil
}

// ValidatePassword applies the length gate first, then the confirmation check.
func (v *Validator) ValidatePassword(pass, confirm string) error {
	if utf8.RuneCountInString(pass) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if pass != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidateName rejects blank names and names with characters outside
// letters, spaces, hyphens and apostrophes.
func (v *Validator) ValidateName(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrNameRequired
	}
	if !namePattern.MatchString(value) {
		return ErrNameFormatInvalid
	}
	return nil
}
