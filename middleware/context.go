package middleware

import (
	"context"

	"github.com/ufacm/checkin"
)

type userContextKey struct{}

// WithUser stores the resolved principal in ctx.
func WithUser(ctx context.Context, user *checkin.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the principal resolved by [Guard] or
// [RequireSession]. Handlers must use this rather than resolving the
// session again.
func UserFromContext(ctx context.Context) (*checkin.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*checkin.User)
	return user, ok && user != nil
}
