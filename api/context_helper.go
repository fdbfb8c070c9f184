package api

import (
	"context"
	"time"

	"github.com/linesmerrill/police-records-api/models"
)

// QueryTimeout is the default timeout for read queries
const QueryTimeout = 10 * time.Second

type contextKey string

const actorContextKey contextKey = "actor"

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithActor returns a copy of ctx carrying the authenticated actor
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the authenticated actor, or the zero actor when
// the request was not authenticated.
func ActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorContextKey).(models.Actor)
	return actor
}
