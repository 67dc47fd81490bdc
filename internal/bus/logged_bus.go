package bus

import (
	"context"

	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// LoggedBus wraps another Bus and journals every published event to
// disk before delivery.
type LoggedBus struct {
	inner   Bus
	journal *EventLog
	log     *logger.Logger
}

// NewLoggedBus wraps inner so publishes are appended to the journal.
func NewLoggedBus(inner Bus, journal *EventLog, log *logger.Logger) *LoggedBus {
	if log == nil {
		log = logger.Default()
	}
	return &LoggedBus{
		inner:   inner,
		journal: journal,
		log:     log,
	}
}

// Publish appends the event to the journal, then delegates. A journal
// failure is logged but does not fail the publish.
func (b *LoggedBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := b.journal.Append(topic, event); err != nil {
		b.log.WithError(err).Warn("failed to journal event", "topic", topic)
	}
	return b.inner.Publish(ctx, topic, event)
}

// Subscribe delegates to the inner bus.
func (b *LoggedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close closes the journal, then the inner bus.
func (b *LoggedBus) Close() error {
	if err := b.journal.Close(); err != nil {
		b.log.WithError(err).Warn("failed to close event journal")
	}
	return b.inner.Close()
}
