package query

import (
	"fmt"

	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// FilterBuilder merges a classified intent and extracted entities into an
// immutable query spec consumed by the retriever.
type FilterBuilder struct {
	defaultLimit        int
	recommendationLimit int
	maxLimit            int
	log                 *logger.Logger
}

// NewFilterBuilder creates a filter builder with the configured limits.
func NewFilterBuilder(defaultLimit, recommendationLimit, maxLimit int, log *logger.Logger) *FilterBuilder {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if recommendationLimit < defaultLimit {
		recommendationLimit = defaultLimit * 2
	}
	if maxLimit < recommendationLimit {
		maxLimit = 100
	}
	return &FilterBuilder{
		defaultLimit:        defaultLimit,
		recommendationLimit: recommendationLimit,
		maxLimit:            maxLimit,
		log:                 log,
	}
}

// Build constructs the query spec. Contradictory price bounds fail with a
// validation error surfaced to the caller, never repaired.
func (b *FilterBuilder) Build(text string, intent Intent, confidence float64, entities Entities) (*Spec, error) {
	if entities.PriceMin != nil && entities.PriceMax != nil && *entities.PriceMin > *entities.PriceMax {
		return nil, errors.ValidationError("minimum price exceeds maximum price").
			WithDetail("price_min", fmt.Sprintf("%.2f", *entities.PriceMin)).
			WithDetail("price_max", fmt.Sprintf("%.2f", *entities.PriceMax))
	}

	aggregate := intent == IntentAnalytics
	if aggregate {
		// Statistics run over the whole candidate pool; per-item
		// constraints would skew the counts and averages.
		entities.PriceMin = nil
		entities.PriceMax = nil
		entities.RatingMin = nil
		entities.Genres = nil
		entities.Stores = nil
	}

	spec := &Spec{
		Text:       text,
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		Limit:      b.resolveLimit(intent, entities),
		Aggregate:  aggregate,
	}

	b.log.Debug("built query spec",
		"intent", spec.Intent,
		"limit", spec.Limit,
		"aggregate", spec.Aggregate,
	)

	return spec, nil
}

// resolveLimit applies intent-specific defaults: recommendations without an
// explicit count get a larger pool than plain searches. Explicit counts
// are capped so an absurd request cannot blow up the over-fetched search.
func (b *FilterBuilder) resolveLimit(intent Intent, entities Entities) int {
	if entities.Limit != nil {
		if *entities.Limit > b.maxLimit {
			return b.maxLimit
		}
		return *entities.Limit
	}
	if intent == IntentRecommendation {
		return b.recommendationLimit
	}
	return b.defaultLimit
}
