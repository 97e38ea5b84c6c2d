package auth

import (
	"context"

	"carbon-tracker/internal/domain"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }

// RequireUser fails unless the caller is authenticated.
func (p Principal) RequireUser() error {
	if p.UserID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the caller is an authenticated ADMIN.
func (p Principal) RequireAdmin() error {
	if err := p.RequireUser(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or the zero
// (anonymous) principal.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
