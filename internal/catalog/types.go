// Package catalog defines the unified book record consumed by the
// retrieval pipeline, along with the fixed vocabularies (genres, stores,
// sort keys) used during query understanding.
package catalog

import (
	"fmt"
	"strings"
)

// BookRecord is a harmonized catalog entry. Records are produced upstream
// and consumed read-only by the pipeline.
type BookRecord struct {
	// ID uniquely identifies the record across stores.
	ID string `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Authors is the ordered list of authors.
	Authors []string `json:"authors"`

	// Genre is the canonical genre name.
	Genre string `json:"genre"`

	// Price is a currency-agnostic numeric price, >= 0.
	Price float64 `json:"price"`

	// Rating is the average rating in [0, 5].
	Rating float64 `json:"rating"`

	// Store identifies the selling store.
	Store string `json:"store"`

	// Description is free-text describing the book.
	Description string `json:"description"`
}

// Validate checks the record invariants.
func (b BookRecord) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("book record has empty id")
	}
	if b.Title == "" {
		return fmt.Errorf("book %s has empty title", b.ID)
	}
	if b.Price < 0 {
		return fmt.Errorf("book %s has negative price %.2f", b.ID, b.Price)
	}
	if b.Rating < 0 || b.Rating > 5 {
		return fmt.Errorf("book %s has rating %.2f outside [0,5]", b.ID, b.Rating)
	}
	return nil
}

// AuthorLine renders the authors as a display string.
func (b BookRecord) AuthorLine() string {
	if len(b.Authors) == 0 {
		return "unknown author"
	}
	return strings.Join(b.Authors, ", ")
}

// EmbedText builds the text embedded for semantic search over this book.
func (b BookRecord) EmbedText() string {
	var sb strings.Builder
	sb.WriteString(b.Title)
	sb.WriteString(" by ")
	sb.WriteString(b.AuthorLine())
	if b.Genre != "" {
		sb.WriteString(". ")
		sb.WriteString(b.Genre)
	}
	if b.Description != "" {
		sb.WriteString(". ")
		sb.WriteString(b.Description)
	}
	return sb.String()
}

// SortKey identifies a result ordering requested by the user.
type SortKey string

const (
	// SortPriceAsc orders by price, cheapest first.
	SortPriceAsc SortKey = "price-asc"

	// SortPriceDesc orders by price, most expensive first.
	SortPriceDesc SortKey = "price-desc"

	// SortRatingDesc orders by rating, best rated first.
	SortRatingDesc SortKey = "rating-desc"

	// SortRelevance keeps the composite-score ordering.
	SortRelevance SortKey = "relevance"
)
