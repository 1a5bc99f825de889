package util

import (
	"context"
	"net/http"

	"traintrack/backend/internal/shared"
)

// Actor is the authenticated requester injected by the auth middleware.
type Actor struct {
	UserID   string
	AuthorID string
	Email    string
	Role     string
}

type actorKey struct{}

// WithActor stores the actor on the request context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the actor set by the auth middleware.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey{}).(*Actor)
	return actor
}

// RequireRole writes a 403 and returns false unless the actor holds one of
// the given roles. Admins pass every check.
func RequireRole(w http.ResponseWriter, r *http.Request, roles ...string) (*Actor, bool) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	if actor.Role == shared.RoleAdmin {
		return actor, true
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, true
		}
	}
	WriteJSONError(w, http.StatusForbidden, "Insufficient permissions")
	return nil, false
}
