package uow

import (
	"context"

	"github.com/rentflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventBuffer gathers the domain events raised inside a unit of work.
// Events are published only after the unit of work commits; a rolled back
// unit of work discards the buffer with it.
type EventBuffer struct {
	events []shared.DomainEvent
}

// Collect drains the pending events of the given aggregates into the buffer
func (b *EventBuffer) Collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		b.events = append(b.events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

// Events returns the buffered events in collection order
func (b *EventBuffer) Events() []shared.DomainEvent {
	return b.events
}

// Len returns the number of buffered events
func (b *EventBuffer) Len() int {
	return len(b.events)
}

// Flush publishes the buffered events. Publishing failures are logged and
// never undo the committed unit of work.
func (b *EventBuffer) Flush(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger) {
	if publisher == nil || len(b.events) == 0 {
		b.events = nil
		return
	}
	if err := publisher.Publish(ctx, b.events...); err != nil {
		logger.Warn("failed to publish domain events",
			zap.Int("event_count", len(b.events)),
			zap.Error(err),
		)
	}
	b.events = nil
}
