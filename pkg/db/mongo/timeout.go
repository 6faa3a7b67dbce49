package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTimeout bounds a repository call. Inside a transaction the
// SessionContext is returned unchanged with a no-op cancel, since wrapping it
// would break the transaction.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if time.Until(deadline) > timeout {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
