package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

const systemPrompt = `You are a bookstore assistant. Answer the user's question using only the catalog excerpts provided. Mention concrete titles, prices, and ratings from the excerpts. If the excerpts do not contain an answer, say so plainly. Keep the answer under 120 words.`

// GenerativeGenerator produces responses through an OpenAI-compatible
// chat model and falls back to templates when the model fails or times
// out. The caller always gets a response.
type GenerativeGenerator struct {
	model           llms.Model
	modelName       string
	fallback        *TemplateGenerator
	maxContextItems int
	timeout         time.Duration
	log             *logger.Logger
}

// NewGenerativeGenerator creates a generator backed by the configured
// chat endpoint.
func NewGenerativeGenerator(cfg config.GenerationConfig, log *logger.Logger) (*GenerativeGenerator, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, errors.GenerationUnavailableError("failed to create chat client", err)
	}

	maxItems := cfg.MaxContextItems
	if maxItems <= 0 {
		maxItems = 10
	}

	return &GenerativeGenerator{
		model:           model,
		modelName:       cfg.Model,
		fallback:        NewTemplateGenerator(log),
		maxContextItems: maxItems,
		timeout:         time.Duration(cfg.TimeoutSec) * time.Second,
		log:             log,
	}, nil
}

// Generate asks the model for an answer grounded in the retrieved books.
// Model failures degrade to the template response; the response strategy
// records which path produced the text.
func (g *GenerativeGenerator) Generate(ctx context.Context, spec *query.Spec, result *retrieval.Result) (*Response, error) {
	if len(result.Items) == 0 && !spec.Aggregate {
		// Nothing to ground the model in; the template no-results
		// message is strictly better than a hallucination.
		return g.fallback.Generate(ctx, spec, result)
	}

	genCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(g.buildPrompt(spec, result))},
		},
	}

	response, err := g.model.GenerateContent(genCtx, content, llms.WithTemperature(0.2))
	if err != nil {
		if genCtx.Err() == context.DeadlineExceeded {
			g.log.Warn("generation timed out, falling back to template",
				"query", spec.Text, "timeout", g.timeout)
		} else {
			g.log.WithError(err).Warn("generation failed, falling back to template",
				"query", spec.Text)
		}
		return g.fallback.Generate(ctx, spec, result)
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Content) == "" {
		g.log.Warn("model returned empty response, falling back to template", "query", spec.Text)
		return g.fallback.Generate(ctx, spec, result)
	}

	return &Response{
		Text:     strings.TrimSpace(response.Choices[0].Content),
		Strategy: StrategyGenerative,
		Model:    g.modelName,
	}, nil
}

// buildPrompt assembles the user question and the catalog excerpts the
// model may cite, capped at maxContextItems.
func (g *GenerativeGenerator) buildPrompt(spec *query.Spec, result *retrieval.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n", spec.Text)
	fmt.Fprintf(&b, "Detected intent: %s\n\n", spec.Intent)

	limit := len(result.Items)
	if limit > g.maxContextItems {
		limit = g.maxContextItems
	}

	if limit > 0 {
		b.WriteString("Catalog excerpts:\n")
		for i, item := range result.Items[:limit] {
			book := item.Book
			fmt.Fprintf(&b, "%d. %s by %s | genre: %s | price: $%.2f | rating: %.1f | store: %s\n",
				i+1, book.Title, book.AuthorLine(), book.Genre, book.Price, book.Rating, book.Store)
			if book.Description != "" {
				fmt.Fprintf(&b, "   %s\n", book.Description)
			}
		}
	}

	for _, s := range result.StoreStats {
		fmt.Fprintf(&b, "Store %s: %d books, avg price $%.2f, avg rating %.1f\n",
			s.Store, s.Count, s.AvgPrice, s.AvgRating)
	}

	if len(result.GenreDistribution) > 0 {
		b.WriteString("Genre counts: ")
		for _, genre := range sortedGenres(result.GenreDistribution) {
			fmt.Fprintf(&b, "%s=%d ", genre, result.GenreDistribution[genre])
		}
		b.WriteString("\n")
	}

	return b.String()
}

// New creates the configured generator: generative when enabled, plain
// templates otherwise.
func New(cfg config.GenerationConfig, log *logger.Logger) (Generator, error) {
	if !cfg.Enabled {
		return NewTemplateGenerator(log), nil
	}
	return NewGenerativeGenerator(cfg, log)
}
