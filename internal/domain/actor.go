package domain

import "context"

// Actor is the caller-supplied identity attached to committing operations.
// The engine trusts it; role eligibility is checked upstream.
type Actor struct {
	ID   string
	Role string
}

type actorContextKey struct{}

// ContextWithActor attaches an actor to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// ActorID returns the actor id or "system" when none is attached.
func ActorID(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.ID != "" {
		return actor.ID
	}
	return "system"
}
