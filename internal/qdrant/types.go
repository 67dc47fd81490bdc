// Package qdrant provides a wrapper around the Qdrant Go client
// with simplified APIs for Shelf Search operations.
package qdrant

// CollectionConfig defines the configuration for creating a Qdrant collection.
type CollectionConfig struct {
	// Name is the collection name (will be prefixed with "shelf_").
	Name string

	// VectorSize is the dimension of the embedding vectors.
	VectorSize uint64

	// OnDiskPayload stores payload on disk to save RAM.
	OnDiskPayload bool

	// IndexingThreshold is the number of vectors before HNSW index is built.
	IndexingThreshold uint64
}

// DefaultCollectionConfig returns sensible defaults for a book collection.
func DefaultCollectionConfig(name string) CollectionConfig {
	return CollectionConfig{
		Name:              name,
		VectorSize:        384, // all-minilm embeddings
		OnDiskPayload:     false,
		IndexingThreshold: 20000,
	}
}

// Point represents a book to upsert into Qdrant.
type Point struct {
	// ID is the unique point identifier.
	ID string

	// Vector is the embedding of the book's searchable text.
	Vector []float32

	// Payload is the book metadata associated with this point.
	Payload BookPayload
}

// BookPayload contains the searchable metadata for a book.
type BookPayload struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Genre       string   `json:"genre"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Store       string   `json:"store"`
	Description string   `json:"description"`
}

// SearchRequest defines parameters for a vector search.
type SearchRequest struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of results to return.
	Limit uint64

	// Filter constrains the search to matching books.
	Filter *SearchFilter

	// WithPayload includes payload in results.
	WithPayload bool

	// ScoreThreshold filters results below this score.
	ScoreThreshold *float32
}

// SearchFilter defines filter conditions for search. All set conditions
// must hold; empty fields mean no constraint.
type SearchFilter struct {
	// Stores filters by store identifier.
	Stores []string

	// Genres filters by canonical genre.
	Genres []string

	// PriceMin is the inclusive lower price bound.
	PriceMin *float64

	// PriceMax is the inclusive upper price bound.
	PriceMax *float64

	// RatingMin is the inclusive minimum rating.
	RatingMin *float64
}

// IsEmpty reports whether the filter has no conditions.
func (f *SearchFilter) IsEmpty() bool {
	return f == nil ||
		(len(f.Stores) == 0 && len(f.Genres) == 0 &&
			f.PriceMin == nil && f.PriceMax == nil && f.RatingMin == nil)
}

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the point identifier.
	ID string

	// Score is the similarity score.
	Score float32

	// Payload contains the book metadata.
	Payload BookPayload
}

// DeleteFilter defines conditions for deleting points.
type DeleteFilter struct {
	// IDs deletes specific point IDs.
	IDs []string

	// Store deletes all books belonging to this store.
	Store string
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	// Name is the collection name (without prefix).
	Name string

	// PointsCount is the total number of points.
	PointsCount uint64

	// Status is the collection health status.
	Status string

	// SegmentsCount is the number of segments.
	SegmentsCount uint64
}
