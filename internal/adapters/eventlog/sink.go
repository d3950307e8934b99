// Package eventlog mirrors committed events into the structured log.
package eventlog

import (
	"context"
	"log/slog"

	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
)

// Sink logs every committed event at debug level
type Sink struct {
	log *slog.Logger
}

// NewSink creates a new logging sink
func NewSink(log *slog.Logger) *Sink {
	return &Sink{log: log.With("component", "events")}
}

// Publish logs events in commit order
func (s *Sink) Publish(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		attrs := []any{
			"seq", ev.Seq,
			"module", ev.Module,
			"entity", ev.EntityID,
			"actor", ev.Actor.Hex(),
		}
		if ev.Transition() {
			attrs = append(attrs, "from", ev.From, "to", ev.To)
		}
		for k, v := range ev.Data {
			attrs = append(attrs, k, v)
		}
		s.log.DebugContext(ctx, string(ev.Type), attrs...)
	}
	return nil
}

var _ core.EventSink = (*Sink)(nil)
