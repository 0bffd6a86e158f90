package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor is the authenticated user attached to a request by RequireAuth.
type Actor struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      string
	CSRFToken string
	ExpiresAt time.Time
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

// Scope returns the assignee filter the actor's role entitles them to:
// nil (everything) for admins, their own id otherwise.
func (a Actor) Scope() *uuid.UUID {
	if a.IsAdmin() {
		return nil
	}
	id := a.UserID
	return &id
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return v
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	v, ok := ctx.Value(actorKey).(Actor)
	return v, ok
}
