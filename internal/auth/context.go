package auth

import "context"

type contextKey string

const contextKeyIdentity contextKey = "auth.identity"

// Identity is the authenticated caller.
type Identity struct {
	TenantID string
	Role     Role
	Subject  string
}

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext extracts the caller identity. The zero value means anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	if identity, ok := ctx.Value(contextKeyIdentity).(Identity); ok {
		return identity
	}
	return Identity{}
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).Subject
}
