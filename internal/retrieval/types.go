// Package retrieval finds the books that answer a parsed query.
package retrieval

import (
	"github.com/shelfsearch/shelf-search/internal/catalog"
)

// Item is a single retrieved book with its scores.
type Item struct {
	// ID is the point identifier in the index.
	ID string

	// Book is the full catalog record.
	Book catalog.BookRecord

	// Similarity is the raw vector similarity from the index.
	Similarity float64

	// Score is the composite ranking score.
	Score float64
}

// StoreStats aggregates the candidate pool per store.
type StoreStats struct {
	Store     string  `json:"store"`
	Count     int     `json:"count"`
	AvgPrice  float64 `json:"avg_price"`
	MinPrice  float64 `json:"min_price"`
	MaxPrice  float64 `json:"max_price"`
	AvgRating float64 `json:"avg_rating"`
}

// Metadata records per-stage timings for observability.
type Metadata struct {
	EmbedMs  int64 `json:"embed_ms"`
	SearchMs int64 `json:"search_ms"`
	RankMs   int64 `json:"rank_ms"`
}

// Result is the outcome of a retrieval. An empty Items slice is a valid
// result, not an error.
type Result struct {
	// Items are the ranked books, truncated to the requested limit.
	Items []Item

	// PoolSize is the size of the candidate pool before truncation.
	PoolSize int

	// StoreStats is populated for comparison and analytics queries.
	StoreStats []StoreStats

	// GenreDistribution counts genres over the full candidate pool.
	// Populated for analytics queries.
	GenreDistribution map[string]int

	// Metadata holds per-stage timings.
	Metadata Metadata
}
