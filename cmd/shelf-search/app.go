package main

import (
	"fmt"

	"github.com/shelfsearch/shelf-search/internal/bus"
	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/embedding"
	"github.com/shelfsearch/shelf-search/internal/generate"
	"github.com/shelfsearch/shelf-search/internal/pipeline"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/qdrant"
	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

// app holds the wired services behind a single CLI invocation.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	qdrant   *qdrant.Client
	embedder embedding.Embedder
	events   bus.Bus
	pipeline *pipeline.Pipeline
}

// buildApp loads configuration and wires the full service graph.
func buildApp(configPath string, verbose bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	log := logger.New(logLevel, cfg.Log.Format)

	qc, err := qdrant.NewClient(qdrant.ClientConfigFrom(cfg.Qdrant))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		_ = qc.Close()
		return nil, err
	}

	generator, err := generate.New(cfg.Generation, log)
	if err != nil {
		_ = qc.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	events, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		_ = qc.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	parser := query.NewService(query.Config{
		ConfidenceThreshold: cfg.Query.ConfidenceThreshold,
		DefaultLimit:        cfg.Retrieval.DefaultLimit,
		RecommendationLimit: cfg.Retrieval.RecommendationLimit,
		MaxLimit:            cfg.Retrieval.MaxLimit,
	}, log)

	retriever := retrieval.NewRetriever(qc, embedder, cfg.Qdrant.Collection, cfg.Retrieval, log)

	return &app{
		cfg:      cfg,
		log:      log,
		qdrant:   qc,
		embedder: embedder,
		events:   events,
		pipeline: pipeline.New(parser, retriever, generator, events, log),
	}, nil
}

// buildEmbedder creates the embedding client wrapped with the configured cache.
func buildEmbedder(cfg *config.Config, log *logger.Logger) (embedding.Embedder, error) {
	inner, err := embedding.NewOpenAIEmbedder(cfg.Embedding, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	cache, err := embedding.NewCache(cfg.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return embedding.NewCachedEmbedder(inner, cache), nil
}

// Close releases the app's connections.
func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.log.Warn("error closing event bus", "error", err)
	}
	if err := a.qdrant.Close(); err != nil {
		a.log.Warn("error closing Qdrant client", "error", err)
	}
}
