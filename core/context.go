package core

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated principal attached to a request context
// by the auth middleware.
type Identity struct {
	ID       uuid.UUID
	Email    string
	Nickname string
}

type contextKey struct{}

var identityKey contextKey

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the identity set by the auth middleware.
// Handlers must use this instead of re-parsing credentials.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}
