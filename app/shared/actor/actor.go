package actor

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an engine operation, as resolved by
// the auth layer.
type Actor struct {
	PlayerID uuid.UUID
	IsAdmin  bool
}

type ctxKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor stored on ctx.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// Admin is a convenience constructor for admin actors.
func Admin(id uuid.UUID) Actor {
	return Actor{PlayerID: id, IsAdmin: true}
}

// Player is a convenience constructor for non-admin actors.
func Player(id uuid.UUID) Actor {
	return Actor{PlayerID: id}
}
