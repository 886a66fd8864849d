package domain

import "context"

// Caller is the opaque identity of whoever initiated a request. Token
// verification happens upstream; this service only carries the identity
// through for audit records.
type Caller struct {
	ID string
}

type callerContextKey struct{}

// WithCaller returns a context carrying the caller identity.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFromContext extracts the caller identity, if present.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerContextKey{}).(Caller)
	return c, ok
}
