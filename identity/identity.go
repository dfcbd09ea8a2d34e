// Package identity carries caller principals through a context.
//
// Carbonlock does not authenticate callers. The host authenticates a request,
// attaches the principal with WithCaller, and the engine reads it back with
// Caller when it needs an owner or buyer.
package identity

import "context"

// Principal is an opaque identity for a caller or account.
type Principal string

// Anonymous is the principal used when the host attached no caller.
const Anonymous Principal = "2vxsx-fae"

// String implements fmt.Stringer.
func (p Principal) String() string { return string(p) }

// IsZero reports whether p is empty.
func (p Principal) IsZero() bool { return p == "" }

type callerKey struct{}

// WithCaller returns a copy of ctx carrying p as the authenticated caller.
func WithCaller(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, p)
}

// Caller returns the caller attached to ctx and whether one was present.
func Caller(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(callerKey{}).(Principal)
	if !ok || p.IsZero() {
		return "", false
	}
	return p, true
}

// CallerOrAnonymous returns the caller attached to ctx, or Anonymous.
func CallerOrAnonymous(ctx context.Context) Principal {
	if p, ok := Caller(ctx); ok {
		return p
	}
	return Anonymous
}
