package service

import (
	"context"
	"log/slog"
	"time"
)

// EventPublisher delivers domain events after a transaction commits.
// queue.Publisher and queue.NopPublisher satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 3 * time.Second

// publish sends an event without failing the caller; the state change has
// already been committed when this runs.
func publish(ctx context.Context, pub EventPublisher, log *slog.Logger, key string, v any) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, key, v); err != nil {
		log.Warn("event publish failed", "key", key, "err", err)
	}
}
