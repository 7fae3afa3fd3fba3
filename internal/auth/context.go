package auth

import "context"

type identityKey struct{}

// Identity is the authenticated API caller.
type Identity struct {
	Subject string
	Role    Role
}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// SubjectFromContext returns the caller subject, "anonymous" when unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok && id.Subject != "" {
		return id.Subject
	}
	return "anonymous"
}
