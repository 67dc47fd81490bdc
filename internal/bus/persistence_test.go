package bus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEventLog(t *testing.T) *EventLog {
	t.Helper()
	journal, err := NewEventLog(filepath.Join(t.TempDir(), "events", "journal.log"))
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestEventLogAppendAndReadSince(t *testing.T) {
	journal := newTestEventLog(t)

	for _, id := range []string{"req-1", "req-2", "req-3"} {
		if err := journal.Append(TopicQueryCompleted, completedEvent(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := journal.ReadSince(time.Time{}, 0)
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadSince() returned %d entries, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Topic != TopicQueryCompleted {
			t.Errorf("entry %d topic = %q, want %q", i, entry.Topic, TopicQueryCompleted)
		}
		if entry.At.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}
}

func TestEventLogReadSinceLimit(t *testing.T) {
	journal := newTestEventLog(t)

	for i := 0; i < 5; i++ {
		if err := journal.Append(TopicQueryFailed, completedEvent("req")); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := journal.ReadSince(time.Time{}, 2)
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadSince() returned %d entries, want 2", len(entries))
	}
}

func TestEventLogReadSinceFiltersOldEntries(t *testing.T) {
	journal := newTestEventLog(t)

	if err := journal.Append(TopicQueryCompleted, completedEvent("old")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)

	if err := journal.Append(TopicQueryCompleted, completedEvent("new")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := journal.ReadSince(cutoff, 0)
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ReadSince() returned %d entries, want 1", len(entries))
	}
}

func TestEventLogSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	journal, err := NewEventLog(path)
	if err != nil {
		t.Fatalf("NewEventLog() error = %v", err)
	}
	defer journal.Close()

	if err := journal.Append(TopicQueryCompleted, completedEvent("req-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if _, err := f.WriteString("not json at all\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()

	if err := journal.Append(TopicQueryCompleted, completedEvent("req-2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := journal.ReadSince(time.Time{}, 0)
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadSince() returned %d entries, want 2 with the garbage line skipped", len(entries))
	}
}

func TestEventLogReplay(t *testing.T) {
	journal := newTestEventLog(t)

	want := []string{"req-1", "req-2"}
	for _, id := range want {
		if err := journal.Append(TopicQueryCompleted, completedEvent(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	b := NewMemoryBus()
	defer b.Close()

	ctx := context.Background()
	replayed := make(chan Event, len(want))
	err := b.Subscribe(ctx, TopicQueryCompleted, func(_ context.Context, event Event) error {
		replayed <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := journal.Replay(ctx, b, time.Time{}); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	for range want {
		select {
		case <-replayed:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for replayed event")
		}
	}
}

func TestEventLogAppendAfterClose(t *testing.T) {
	journal := newTestEventLog(t)
	if err := journal.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := journal.Append(TopicQueryCompleted, completedEvent("req-1")); err == nil {
		t.Error("Append() after Close() should fail")
	}
	if err := journal.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestLoggedBusJournalsPublishedEvents(t *testing.T) {
	journal := newTestEventLog(t)

	inner := NewMemoryBus()
	logged := NewLoggedBus(inner, journal, nil)
	defer logged.Close()

	ctx := context.Background()
	delivered := make(chan Event, 1)
	err := logged.Subscribe(ctx, TopicBooksIndexed, func(_ context.Context, event Event) error {
		delivered <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	event := NewEvent(TopicBooksIndexed, "cli", BooksIndexedPayload{Collection: "books", Count: 7})
	if err := logged.Publish(ctx, TopicBooksIndexed, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-delivered:
		if got.ID != event.ID {
			t.Errorf("delivered event ID = %q, want %q", got.ID, event.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery through the logged bus")
	}

	entries, err := journal.ReadSince(time.Time{}, 0)
	if err != nil {
		t.Fatalf("ReadSince() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal has %d entries, want 1", len(entries))
	}
	if entries[0].Event.ID != event.ID {
		t.Errorf("journaled event ID = %q, want %q", entries[0].Event.ID, event.ID)
	}
}
