package bus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
)

func completedEvent(requestID string) Event {
	return NewEvent(TopicQueryCompleted, "pipeline", QueryCompletedPayload{
		RequestID: requestID,
		Query:     "cheap fantasy paperbacks",
		Intent:    "search",
		Results:   3,
		Strategy:  "template",
		TotalMs:   12,
	})
}

func TestNewEvent(t *testing.T) {
	before := time.Now().Unix()
	event := NewEvent(TopicBooksIndexed, "cli", BooksIndexedPayload{Collection: "books", Count: 42})

	if event.ID == "" {
		t.Error("event ID should not be empty")
	}
	if event.Type != TopicBooksIndexed {
		t.Errorf("event type = %q, want %q", event.Type, TopicBooksIndexed)
	}
	if event.Source != "cli" {
		t.Errorf("event source = %q, want %q", event.Source, "cli")
	}
	if event.Timestamp < before {
		t.Errorf("event timestamp = %d, want >= %d", event.Timestamp, before)
	}

	payload, ok := event.Payload.(BooksIndexedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want BooksIndexedPayload", event.Payload)
	}
	if payload.Count != 42 {
		t.Errorf("payload count = %d, want 42", payload.Count)
	}
}

func TestMemoryBusDeliversToAllSubscribers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	received := make(chan Event, 2)
	for i := 0; i < 2; i++ {
		err := b.Subscribe(ctx, TopicQueryCompleted, func(_ context.Context, event Event) error {
			received <- event
			return nil
		})
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}

	if err := b.Publish(ctx, TopicQueryCompleted, completedEvent("req-1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case event := <-received:
			payload, ok := event.Payload.(QueryCompletedPayload)
			if !ok {
				t.Fatalf("payload type = %T, want QueryCompletedPayload", event.Payload)
			}
			if payload.RequestID != "req-1" {
				t.Errorf("payload request_id = %q, want %q", payload.RequestID, "req-1")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
}

func TestMemoryBusTopicsAreIsolated(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	failed := make(chan Event, 1)
	err := b.Subscribe(ctx, TopicQueryFailed, func(_ context.Context, event Event) error {
		failed <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.Publish(ctx, TopicQueryCompleted, completedEvent("req-2")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case event := <-failed:
		t.Fatalf("unexpected delivery on %s: %v", TopicQueryFailed, event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	if err := b.Publish(context.Background(), TopicBooksDeleted, completedEvent("req-3")); err != nil {
		t.Fatalf("Publish() error = %v, want nil for a topic with no subscribers", err)
	}
}

func TestMemoryBusHandlerErrorDoesNotFailPublish(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	err := b.Subscribe(ctx, TopicQueryFailed, func(context.Context, Event) error {
		return fmt.Errorf("downstream consumer broke")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.Publish(ctx, TopicQueryFailed, completedEvent("req-4")); err != nil {
		t.Fatalf("Publish() error = %v, want nil despite handler failure", err)
	}
}

func TestMemoryBusClosedRejectsOperations(t *testing.T) {
	b := NewMemoryBus()
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	if err := b.Publish(ctx, TopicQueryCompleted, completedEvent("req-5")); !errors.HasCode(err, errors.CodeUnavailable) {
		t.Errorf("Publish() after close = %v, want %s", err, errors.CodeUnavailable)
	}
	if err := b.Subscribe(ctx, TopicQueryCompleted, func(context.Context, Event) error { return nil }); !errors.HasCode(err, errors.CodeUnavailable) {
		t.Errorf("Subscribe() after close = %v, want %s", err, errors.CodeUnavailable)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestMemoryBusCloseDrainsInFlightHandlers(t *testing.T) {
	b := NewMemoryBus()

	ctx := context.Background()
	var mu sync.Mutex
	var handled []string
	err := b.Subscribe(ctx, TopicQueryCompleted, func(_ context.Context, event Event) error {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		handled = append(handled, event.ID)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.Publish(ctx, TopicQueryCompleted, completedEvent("req-6")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 {
		t.Errorf("handled %d events after Close(), want 1", len(handled))
	}
}

func TestMemoryBusConcurrentPublish(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	var deliveries sync.WaitGroup
	deliveries.Add(20)
	err := b.Subscribe(ctx, TopicQueryCompleted, func(context.Context, Event) error {
		deliveries.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	var publishers sync.WaitGroup
	for i := 0; i < 20; i++ {
		publishers.Add(1)
		go func(n int) {
			defer publishers.Done()
			if err := b.Publish(ctx, TopicQueryCompleted, completedEvent(fmt.Sprintf("req-%d", n))); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
		}(i)
	}
	publishers.Wait()

	done := make(chan struct{})
	go func() {
		deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all deliveries")
	}
}
