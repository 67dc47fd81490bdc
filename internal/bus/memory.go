package bus

import (
	"context"
	"sync"
	"time"

	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// drainTimeout bounds how long Close waits for in-flight handlers.
const drainTimeout = 10 * time.Second

// MemoryBus is an in-process Bus. Handlers run on their own goroutines
// so a slow subscriber never blocks the query pipeline.
type MemoryBus struct {
	mu       sync.RWMutex
	subs     map[string][]Handler
	closed   bool
	inflight sync.WaitGroup
	log      *logger.Logger
}

// NewMemoryBus creates an in-process event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[string][]Handler),
		log:  logger.Default(),
	}
}

// Publish delivers the event to every handler subscribed on the topic.
// A topic with no subscribers is not an error. Handler failures are
// logged and do not fail the publish.
func (b *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	for _, handler := range b.subs[topic] {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			if err := h(ctx, event); err != nil {
				b.log.WithError(err).Warn("event handler failed", "topic", topic, "event_id", event.ID)
			}
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for a topic.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	b.subs[topic] = append(b.subs[topic], handler)
	return nil
}

// Close rejects further publishes and waits for in-flight handlers,
// up to the drain timeout.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if !b.drain(drainTimeout) {
		b.log.Warn("event drain timeout reached, some handlers may still be running")
	}

	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()

	return nil
}

// drain waits for in-flight handlers to finish, returning false if the
// timeout elapsed first.
func (b *MemoryBus) drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
