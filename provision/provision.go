package provision

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/identity"
)

// Admin is the elevated slice of the identity provider. It is only ever
// held server-side.
type Admin interface {
	AdminCreateUser(ctx context.Context, input checkin.CreateUserInput) (*checkin.User, error)
	AdminGenerateLink(ctx context.Context, kind checkin.OTPType, email string) error
}

// Request is the registration payload. Field order is check order.
type Request struct {
	Email     string `json:"email" validate:"institution_email"`
	Password  string `json:"password" validate:"password_policy"`
	FirstName string `json:"firstName" validate:"name_present,name_format"`
	LastName  string `json:"lastName" validate:"name_present,name_format"`
}

// Account is the identity created by a successful provisioning call.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// Rejection is a validation failure. Message is returned to the caller as-is.
type Rejection struct {
	Field   string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Provisioner re-validates registrations and creates unconfirmed accounts.
type Provisioner struct {
	admin     Admin
	identity  *identity.Validator
	validate  *validator.Validate
	rejection map[string]string
	logger    zerolog.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner)

func WithValidator(v *identity.Validator) Option {
	return func(p *Provisioner) {
		if v != nil {
			p.identity = v
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

func New(admin Admin, opts ...Option) (*Provisioner, error) {
	if admin == nil {
		return nil, errors.New("provision: admin client is required")
	}

	p := &Provisioner{
		admin:    admin,
		identity: identity.Default(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	validate, err := newValidate(p.identity)
	if err != nil {
		return nil, err
	}
	p.validate = validate
	p.rejection = rejectionMessages(p.identity.Domain())
	return p, nil
}

// Provision validates req, creates the account with confirmation deferred
// and then asks the provider to send the signup code. Only the creation step
// can fail the call: a dispatch failure is logged and the account stands.
//
// Errors are a *Rejection for invalid input, a *checkin.ProviderError when
// the provider refused the account, or anything else for internal faults.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Account, error) {
	if err := p.check(req); err != nil {
		return nil, err
	}

	first := identity.NormalizeName(req.FirstName)
	last := identity.NormalizeName(req.LastName)
	full := identity.FullName(first, last)

	user, err := p.admin.AdminCreateUser(ctx, checkin.CreateUserInput{
		Email:          req.Email,
		Password:       req.Password,
		EmailConfirmed: false,
		Metadata: checkin.UserMetadata{
			FullName:  full,
			FirstName: first,
			LastName:  last,
		},
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("provision: provider returned no user")
	}

	if err := p.admin.AdminGenerateLink(ctx, checkin.OTPSignup, req.Email); err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("provision: otp dispatch failed")
	}

	return &Account{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: first,
		LastName:  last,
		FullName:  full,
	}, nil
}

func (p *Provisioner) check(req Request) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("provision: validate request: %w", err)
	}

	// Fields are reported in declaration order, so the first entry is the
	// first failing check.
	fe := fieldErrs[0]
	msg, ok := p.rejection[fe.StructField()+"."+fe.Tag()]
	if !ok {
		return fmt.Errorf("provision: no message for %s.%s", fe.StructField(), fe.Tag())
	}
	return &Rejection{Field: fe.StructField(), Message: msg}
}

func newValidate(v *identity.Validator) (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	rules := map[string]validator.Func{
		"institution_email": func(fl validator.FieldLevel) bool {
			return v.MatchEmail(fl.Field().String())
		},
		"password_policy": func(fl validator.FieldLevel) bool {
			return utf8.RuneCountInString(fl.Field().String()) >= identity.MinPasswordLength
		},
		"name_present": func(fl validator.FieldLevel) bool {
			return !errors.Is(v.ValidateName(fl.Field().String()), identity.ErrNameRequired)
		},
		"name_format": func(fl validator.FieldLevel) bool {
			return v.ValidateName(fl.Field().String()) == nil
		},
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("provision: register %s: %w", tag, err)
		}
	}
	return validate, nil
}

func rejectionMessages(domain string) map[string]string {
	return map[string]string{
		"Email.institution_email":  "Invalid email. Must be a valid @" + domain + " email address.",
		"Password.password_policy": fmt.Sprintf("Password must be at least %d characters long.", identity.MinPasswordLength),
		"FirstName.name_present":   "First name is required.",
		"FirstName.name_format":    "First name can only contain letters, spaces, hyphens, and apostrophes.",
		"LastName.name_present":    "Last name is required.",
		"LastName.name_format":     "Last name can only contain letters, spaces, hyphens, and apostrophes.",
	}
}
