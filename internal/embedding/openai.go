package embedding

import (
	"context"
	"strconv"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible API,
// typically a local Ollama or llama.cpp server.
type OpenAIEmbedder struct {
	embedder  embeddings.Embedder
	dimension int
	timeout   time.Duration
	limiter   *rate.Limiter
	log       *logger.Logger
}

// NewOpenAIEmbedder creates an embedder for the configured endpoint. A
// missing API key falls back to a placeholder token for local services
// that skip authentication.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig, log *logger.Logger) (*OpenAIEmbedder, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, errors.EmbeddingUnavailableError("failed to create embedding client", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, errors.EmbeddingUnavailableError("failed to create embedder", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &OpenAIEmbedder{
		embedder:  embedder,
		dimension: cfg.Dimension,
		timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		limiter:   limiter,
		log:       log,
	}, nil
}

// EmbedText generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.EmbeddingUnavailableError("embedder returned no vectors", nil)
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts in a batch. The rate
// limiter counts one request per batch, matching the upstream API.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, errors.EmbeddingUnavailableError("rate limiter interrupted", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.log.WithError(err).Error("embedding request failed", "count", len(texts))
		return nil, errors.EmbeddingUnavailableError("embedding request failed", err)
	}

	for i, v := range vectors {
		if e.dimension > 0 && len(v) != e.dimension {
			return nil, errors.EmbeddingUnavailableError("unexpected embedding dimension", nil).
				WithDetail("index", strconv.Itoa(i)).
				WithDetail("got", strconv.Itoa(len(v))).
				WithDetail("want", strconv.Itoa(e.dimension))
		}
	}

	return vectors, nil
}

// Dimension returns the configured vector width.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}
