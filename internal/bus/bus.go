// Package bus carries pipeline lifecycle events between the query
// pipeline, the catalog indexer, and any external consumers.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler processes a single event delivered on a subscribed topic.
type Handler func(ctx context.Context, event Event) error

// Bus is a publish/subscribe event channel. Implementations deliver
// published events to every handler subscribed on the topic.
type Bus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Event is the envelope published on a topic.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// NewEvent builds an event envelope with a fresh ID and the current time.
func NewEvent(eventType, source string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
}

// Topics emitted by the query pipeline and the catalog indexer.
const (
	TopicQueryCompleted = "query.completed"
	TopicQueryFailed    = "query.failed"
	TopicBooksIndexed   = "catalog.books.indexed"
	TopicBooksDeleted   = "catalog.books.deleted"
)

// QueryCompletedPayload describes a successfully answered query.
type QueryCompletedPayload struct {
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
	Intent    string `json:"intent"`
	Results   int    `json:"results"`
	Strategy  string `json:"strategy"`
	TotalMs   int64  `json:"total_ms"`
}

// QueryFailedPayload describes a query that failed at some pipeline
// stage, carrying the stage error code.
type QueryFailedPayload struct {
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
	Code      string `json:"code"`
}

// BooksIndexedPayload describes a completed catalog ingestion run.
type BooksIndexedPayload struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}
