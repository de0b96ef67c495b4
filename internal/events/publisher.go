package events

import (
	"context"
	"log/slog"
)

// Publisher hands envelopes to the event bus. Implementations must not block
// the caller on broker availability.
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

// LogPublisher is used when no brokers are configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, env *Envelope) error {
	p.Logger.Debug("Domain event (not published)", "type", env.EventType, "id", env.EventID, "correlation_id", env.CorrelationID)
	return nil
}
