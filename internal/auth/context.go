// Package auth is the capability gate in front of the API: bearer-token
// authentication backed by Redis, and the role checks admin-only operations
// sit behind. It supplies the authenticated actor identity to the rest of
// the system.
package auth

import "context"

// Actor is the authenticated principal attached to a request.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type contextKey struct{}

// WithActor attaches the actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the request actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
