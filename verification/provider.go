package verification

import (
	"context"

	"github.com/ufacm/checkin"
)

// Provider is the slice of the identity provider the confirmation flow
// consumes. Errors that carry a user-facing message are *checkin.ProviderError.
type Provider interface {
	SignUp(ctx context.Context, email, password, redirectTo string) error
	VerifyOTP(ctx context.Context, email, code string, kind checkin.OTPType) (*checkin.Session, error)
	ResendOTP(ctx context.Context, email string, kind checkin.OTPType) error
}

// FromEngine adapts an in-process engine to Provider.
func FromEngine(engine *checkin.Engine) Provider {
	return engineProvider{engine: engine}
}

type engineProvider struct {
	engine *checkin.Engine
}

func (p engineProvider) SignUp(ctx context.Context, email, password, redirectTo string) error {
	_, err := p.engine.SignUp(ctx, email, password, redirectTo)
	return err
}

func (p engineProvider) VerifyOTP(ctx context.Context, email, code string, kind checkin.OTPType) (*checkin.Session, error) {
	return p.engine.VerifyOTP(ctx, email, code, kind)
}

func (p engineProvider) ResendOTP(ctx context.Context, email string, kind checkin.OTPType) error {
	return p.engine.ResendOTP(ctx, email, kind)
}
