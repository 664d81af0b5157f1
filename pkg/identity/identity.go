// Package identity carries the caller-scoped identity of a unit of work.
//
// Each request or task owns its context.Context chain, so an identity stored
// with WithIdentity is only visible to code running under that context and
// its descendants. Concurrent units never observe each other's value, and the
// value goes away when the owning unit drops its context.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is an opaque caller value, e.g. a visitor or session.
type Identity interface {
	// ID returns the stable identifier recorded alongside tracked events.
	ID() string
}

// ID is the simplest Identity: a plain string.
type ID string

func (i ID) ID() string { return string(i) }

// Anonymous returns a fresh random identity for a visitor without one.
func Anonymous() ID {
	return ID(uuid.NewString())
}

type contextKey struct{}

// WithIdentity stores an identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id != nil
}

// IDFromContext returns the identifier of the identity stored in ctx, or "".
func IDFromContext(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.ID()
}

// Clear masks any identity inherited from the parent context.
func Clear(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, nil)
}
