// Package query provides query understanding and parsing for Shelf Search.
package query

import (
	"github.com/shelfsearch/shelf-search/internal/catalog"
)

// Intent represents the user's goal when asking a question.
type Intent string

const (
	// IntentSearch - looking for specific books.
	IntentSearch Intent = "search"

	// IntentRecommendation - asking for book recommendations.
	IntentRecommendation Intent = "recommendation"

	// IntentComparison - comparing prices, stores, or books.
	IntentComparison Intent = "comparison"

	// IntentAnalytics - statistical questions over the catalog.
	IntentAnalytics Intent = "analytics"

	// IntentFilter - narrowing results by explicit criteria.
	IntentFilter Intent = "filter"

	// IntentInformation - asking about a specific book.
	IntentInformation Intent = "information"
)

// classifierOrder fixes the iteration order for scoring so classification
// is deterministic regardless of map ordering.
var classifierOrder = []Intent{
	IntentComparison,
	IntentRecommendation,
	IntentAnalytics,
	IntentFilter,
	IntentSearch,
	IntentInformation,
}

// intentPriority breaks score ties: the most specific intent wins.
var intentPriority = map[Intent]int{
	IntentComparison:     6,
	IntentRecommendation: 5,
	IntentAnalytics:      4,
	IntentFilter:         3,
	IntentSearch:         2,
	IntentInformation:    1,
}

// Entities holds the structured parameters extracted from free text.
// A nil field means the category was not mentioned; callers must treat
// absence as "no constraint", never as a zero value.
type Entities struct {
	// PriceMin is the lower price bound, nil when the bound is open.
	PriceMin *float64

	// PriceMax is the upper price bound, nil when the bound is open.
	PriceMax *float64

	// RatingMin is the minimum rating, clamped to [0, 5].
	RatingMin *float64

	// Genres are canonical genre names in stable vocabulary order, deduplicated.
	Genres []string

	// Stores are canonical store identifiers.
	Stores []string

	// Sort is the requested result ordering.
	Sort *catalog.SortKey

	// Limit is the explicitly requested result count.
	Limit *int
}

// IsEmpty reports whether no entity was extracted.
func (e Entities) IsEmpty() bool {
	return e.PriceMin == nil && e.PriceMax == nil && e.RatingMin == nil &&
		len(e.Genres) == 0 && len(e.Stores) == 0 && e.Sort == nil && e.Limit == nil
}

// Spec is the structured representation of a parsed query. It is built
// once by the FilterBuilder and treated as immutable afterwards.
type Spec struct {
	// Text is the raw user query.
	Text string

	// Intent is the classified primary intent.
	Intent Intent

	// Confidence is the classification confidence in [0, 1].
	Confidence float64

	// Entities are the extracted parameters.
	Entities Entities

	// Limit is the resolved result count, always > 0.
	Limit int

	// Aggregate signals the retriever to compute statistics over the
	// candidate pool instead of filtering individual items.
	Aggregate bool
}
