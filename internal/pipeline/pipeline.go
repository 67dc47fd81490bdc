// Package pipeline wires query understanding, retrieval, and response
// generation into a single ask-a-question operation.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shelfsearch/shelf-search/internal/bus"
	"github.com/shelfsearch/shelf-search/internal/generate"
	reqctx "github.com/shelfsearch/shelf-search/internal/pkg/context"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

// batchConcurrency bounds parallel queries in a batch.
const batchConcurrency = 4

// Parser turns free text into a structured query spec.
type Parser interface {
	Parse(ctx context.Context, text string) (*query.Spec, error)
}

// Retriever finds the books answering a spec.
type Retriever interface {
	Retrieve(ctx context.Context, spec *query.Spec) (*retrieval.Result, error)
}

// Timings records per-stage latencies in milliseconds.
type Timings struct {
	ParseMs    int64 `json:"parse_ms"`
	RetrieveMs int64 `json:"retrieve_ms"`
	GenerateMs int64 `json:"generate_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// QueryResponse is the full outcome of one pipeline run.
type QueryResponse struct {
	// RequestID uniquely identifies this run.
	RequestID string `json:"request_id"`

	// Query is the raw input text.
	Query string `json:"query"`

	// Intent is the classified intent.
	Intent query.Intent `json:"intent"`

	// Confidence is the classification confidence.
	Confidence float64 `json:"confidence"`

	// Answer is the rendered response.
	Answer *generate.Response `json:"answer"`

	// Items are the retrieved books backing the answer.
	Items []retrieval.Item `json:"items"`

	// StoreStats is present for comparison and analytics queries.
	StoreStats []retrieval.StoreStats `json:"store_stats,omitempty"`

	// GenreDistribution is present for analytics queries.
	GenreDistribution map[string]int `json:"genre_distribution,omitempty"`

	// Timings records per-stage latencies.
	Timings Timings `json:"timings"`
}

// Pipeline executes the parse, retrieve, generate sequence.
type Pipeline struct {
	parser    Parser
	retriever Retriever
	generator generate.Generator
	events    bus.Bus
	log       *logger.Logger
}

// New creates a pipeline. The event bus is optional; a nil bus disables
// event publishing.
func New(parser Parser, retriever Retriever, generator generate.Generator, events bus.Bus, log *logger.Logger) *Pipeline {
	return &Pipeline{
		parser:    parser,
		retriever: retriever,
		generator: generator,
		events:    events,
		log:       log,
	}
}

// Query runs one question through the pipeline. Validation failures stop
// before retrieval; infrastructure failures surface with their codes
// intact so callers can distinguish outage classes.
func (p *Pipeline) Query(ctx context.Context, text string) (*QueryResponse, error) {
	requestID := uuid.NewString()
	ctx = reqctx.WithRequestID(ctx, requestID)
	log := p.log.WithContext(ctx).WithQuery(text)
	start := time.Now()

	var timings Timings

	parseStart := time.Now()
	spec, err := p.parser.Parse(ctx, text)
	timings.ParseMs = time.Since(parseStart).Milliseconds()
	if err != nil {
		p.publishFailure(ctx, requestID, text, err)
		return nil, err
	}

	retrieveStart := time.Now()
	result, err := p.retriever.Retrieve(ctx, spec)
	timings.RetrieveMs = time.Since(retrieveStart).Milliseconds()
	if err != nil {
		p.publishFailure(ctx, requestID, text, err)
		return nil, err
	}

	generateStart := time.Now()
	answer, err := p.generator.Generate(ctx, spec, result)
	timings.GenerateMs = time.Since(generateStart).Milliseconds()
	if err != nil {
		p.publishFailure(ctx, requestID, text, err)
		return nil, err
	}

	timings.TotalMs = time.Since(start).Milliseconds()

	response := &QueryResponse{
		RequestID:         requestID,
		Query:             text,
		Intent:            spec.Intent,
		Confidence:        spec.Confidence,
		Answer:            answer,
		Items:             result.Items,
		StoreStats:        result.StoreStats,
		GenreDistribution: result.GenreDistribution,
		Timings:           timings,
	}

	p.publishCompleted(ctx, response)

	log.Info("query completed",
		"intent", spec.Intent,
		"results", len(result.Items),
		"strategy", answer.Strategy,
		"total_ms", timings.TotalMs,
	)

	return response, nil
}

// QueryBatch runs several questions concurrently and returns responses in
// input order. The first failure cancels the remaining work.
func (p *Pipeline) QueryBatch(ctx context.Context, texts []string) ([]*QueryResponse, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	responses := make([]*QueryResponse, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, text := range texts {
		g.Go(func() error {
			response, err := p.Query(ctx, text)
			if err != nil {
				return err
			}
			responses[i] = response
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return responses, nil
}

// publishCompleted emits a query.completed event. Publishing is best
// effort and never fails the query.
func (p *Pipeline) publishCompleted(ctx context.Context, response *QueryResponse) {
	if p.events == nil {
		return
	}

	event := bus.NewEvent(bus.TopicQueryCompleted, "pipeline", bus.QueryCompletedPayload{
		RequestID: response.RequestID,
		Query:     response.Query,
		Intent:    string(response.Intent),
		Results:   len(response.Items),
		Strategy:  string(response.Answer.Strategy),
		TotalMs:   response.Timings.TotalMs,
	})

	if err := p.events.Publish(ctx, bus.TopicQueryCompleted, event); err != nil {
		p.log.WithError(err).Warn("failed to publish query event", "request_id", response.RequestID)
	}
}

// publishFailure emits a query.failed event carrying the error code.
func (p *Pipeline) publishFailure(ctx context.Context, requestID, text string, qerr error) {
	if p.events == nil {
		return
	}

	event := bus.NewEvent(bus.TopicQueryFailed, "pipeline", bus.QueryFailedPayload{
		RequestID: requestID,
		Query:     text,
		Code:      errors.GetCode(qerr),
	})

	if err := p.events.Publish(ctx, bus.TopicQueryFailed, event); err != nil {
		p.log.WithError(err).Warn("failed to publish failure event", "request_id", requestID)
	}
}
