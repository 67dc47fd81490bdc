package bus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoredEvent is one journal entry: the event, the topic it was
// published on, and when it was written.
type StoredEvent struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
	Event Event     `json:"event"`
}

// EventLog is an append-only journal of published events, written as
// JSON lines. It backs debugging and replay of the query event stream.
type EventLog struct {
	path string

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewEventLog opens (or creates) the journal file in append mode.
func NewEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	return &EventLog{
		path:    path,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Append writes one entry and syncs so nothing is lost on crash.
func (l *EventLog) Append(topic string, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("event journal is closed")
	}

	entry := StoredEvent{
		Topic: topic,
		At:    time.Now(),
		Event: event,
	}

	if err := l.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal file: %w", err)
	}

	return nil
}

// ReadSince returns entries written after the given time, oldest
// first. Malformed lines are skipped. A limit of 0 means no limit.
func (l *EventLog) ReadSince(since time.Time, limit int) ([]StoredEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var entries []StoredEvent
	for scanner.Scan() {
		var entry StoredEvent
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !entry.At.After(since) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan journal file: %w", err)
	}

	return entries, nil
}

// Replay republishes journaled entries newer than since to the bus,
// in their original order.
func (l *EventLog) Replay(ctx context.Context, bus Bus, since time.Time) error {
	entries, err := l.ReadSince(since, 0)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := bus.Publish(ctx, entry.Topic, entry.Event); err != nil {
			return fmt.Errorf("failed to replay event %s: %w", entry.Event.ID, err)
		}
	}

	return nil
}

// Close closes the journal file. Further appends fail.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal file: %w", err)
	}
	l.file = nil
	l.encoder = nil

	return nil
}
