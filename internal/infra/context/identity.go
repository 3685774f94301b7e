package context

import (
	"context"

	"github.com/mkrupp/jwtauth/internal/domain"
)

//nolint:gochecknoglobals
var identityKey = key[domain.PublicUser]{"identity"}

// IdentityFromContext returns the identity established by an authentication
// strategy for this request, if any.
func IdentityFromContext(ctx context.Context) (domain.PublicUser, bool) {
	return identityKey.from(ctx)
}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, identity domain.PublicUser) context.Context {
	return identityKey.with(ctx, identity)
}

// Username is a shorthand for the authenticated username, or "" when the
// request is anonymous.
func Username(ctx context.Context) string {
	identity, _ := identityKey.from(ctx)

	return identity.Username
}
