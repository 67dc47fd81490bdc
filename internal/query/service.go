package query

import (
	"context"

	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// Service combines intent classification, entity extraction, and filter
// building into a single parse step. It is stateless per call and safe for
// concurrent use.
type Service struct {
	classifier *IntentClassifier
	extractor  *EntityExtractor
	builder    *FilterBuilder
	log        *logger.Logger
}

// Config configures the query understanding service.
type Config struct {
	// ConfidenceThreshold is the minimum classification confidence before
	// falling back to the search intent.
	ConfidenceThreshold float64

	// DefaultLimit is the result count when the user asked for none.
	DefaultLimit int

	// RecommendationLimit is the default result count for recommendations.
	RecommendationLimit int

	// MaxLimit caps explicitly requested result counts.
	MaxLimit int
}

// DefaultConfig returns sensible parsing defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.3,
		DefaultLimit:        10,
		RecommendationLimit: 20,
		MaxLimit:            100,
	}
}

// NewService creates a new query understanding service.
func NewService(cfg Config, log *logger.Logger) *Service {
	if cfg.DefaultLimit == 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		classifier: NewIntentClassifier(cfg.ConfidenceThreshold, log),
		extractor:  NewEntityExtractor(log),
		builder:    NewFilterBuilder(cfg.DefaultLimit, cfg.RecommendationLimit, cfg.MaxLimit, log),
		log:        log,
	}
}

// Parse analyzes a query and returns its structured spec.
func (s *Service) Parse(ctx context.Context, text string) (*Spec, error) {
	if text == "" {
		return nil, errors.InvalidRequestError("query text is empty")
	}

	intent, confidence := s.classifier.Classify(text)
	entities := s.extractor.Extract(text)

	spec, err := s.builder.Build(text, intent, confidence, entities)
	if err != nil {
		return nil, err
	}

	s.log.Debug("parsed query",
		"query", text,
		"intent", spec.Intent,
		"confidence", spec.Confidence,
		"entities_empty", entities.IsEmpty(),
	)

	return spec, nil
}
