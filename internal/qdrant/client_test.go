package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("expected host %s, got %s", DefaultHost, cfg.Host)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
}

func TestDefaultCollectionConfig(t *testing.T) {
	cfg := DefaultCollectionConfig("books")

	if cfg.Name != "books" {
		t.Errorf("expected name 'books', got %s", cfg.Name)
	}

	if cfg.VectorSize != 384 {
		t.Errorf("expected vector size 384, got %d", cfg.VectorSize)
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"books", "shelf_books"},
		{"staging", "shelf_staging"},
		{"books-v2", "shelf_books-v2"},
	}

	for _, tt := range tests {
		result := collectionName(tt.input)
		if result != tt.expected {
			t.Errorf("collectionName(%s) = %s, expected %s", tt.input, result, tt.expected)
		}
	}
}

func TestBuildSearchFilterEmpty(t *testing.T) {
	if got := buildSearchFilter(nil); got != nil {
		t.Errorf("buildSearchFilter(nil) = %v, want nil", got)
	}
	if got := buildSearchFilter(&SearchFilter{}); got != nil {
		t.Errorf("buildSearchFilter(empty) = %v, want nil", got)
	}
}

func TestBuildSearchFilterConditions(t *testing.T) {
	min := 10.0
	max := 30.0
	rating := 4.0

	f := buildSearchFilter(&SearchFilter{
		Stores:    []string{"store_a"},
		Genres:    []string{"fantasy", "science fiction"},
		PriceMin:  &min,
		PriceMax:  &max,
		RatingMin: &rating,
	})

	if f == nil {
		t.Fatal("buildSearchFilter returned nil for populated filter")
	}
	// store + genre + price range + rating range
	if len(f.Must) != 4 {
		t.Fatalf("got %d conditions, want 4", len(f.Must))
	}

	store := f.Must[0].GetField()
	if store.Key != "store" || store.Match.GetKeyword() != "store_a" {
		t.Errorf("store condition = %v, want keyword store_a", store)
	}

	genre := f.Must[1].GetField()
	if genre.Key != "genre" {
		t.Fatalf("genre condition key = %s", genre.Key)
	}
	keywords := genre.Match.GetKeywords()
	if keywords == nil || len(keywords.Strings) != 2 {
		t.Errorf("genre condition = %v, want two keywords", genre.Match)
	}

	price := f.Must[2].GetField()
	if price.Key != "price" || price.Range == nil {
		t.Fatalf("price condition = %v, want range", price)
	}
	if price.Range.Gte == nil || *price.Range.Gte != 10 {
		t.Errorf("price Gte = %v, want 10", price.Range.Gte)
	}
	if price.Range.Lte == nil || *price.Range.Lte != 30 {
		t.Errorf("price Lte = %v, want 30", price.Range.Lte)
	}

	rat := f.Must[3].GetField()
	if rat.Key != "rating" || rat.Range == nil || rat.Range.Gte == nil || *rat.Range.Gte != 4 {
		t.Errorf("rating condition = %v, want Gte 4", rat)
	}
	if rat.Range.Lte != nil {
		t.Errorf("rating Lte = %v, want open upper bound", rat.Range.Lte)
	}
}

func TestBuildSearchFilterOpenPriceBound(t *testing.T) {
	max := 20.0
	f := buildSearchFilter(&SearchFilter{PriceMax: &max})

	if len(f.Must) != 1 {
		t.Fatalf("got %d conditions, want 1", len(f.Must))
	}
	price := f.Must[0].GetField()
	if price.Range.Gte != nil {
		t.Errorf("price Gte = %v, want open lower bound", price.Range.Gte)
	}
	if price.Range.Lte == nil || *price.Range.Lte != 20 {
		t.Errorf("price Lte = %v, want 20", price.Range.Lte)
	}
}

func TestPointIDString(t *testing.T) {
	if got := pointIDString(qdrant.NewIDUUID("abc-123")); got != "abc-123" {
		t.Errorf("uuid id = %s, want abc-123", got)
	}
	if got := pointIDString(qdrant.NewIDNum(42)); got != "42" {
		t.Errorf("num id = %s, want 42", got)
	}
	if got := pointIDString(nil); got != "" {
		t.Errorf("nil id = %q, want empty", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	p := Point{
		ID:     "a5f3e2d1-0000-0000-0000-000000000001",
		Vector: []float32{0.1, 0.2},
		Payload: BookPayload{
			Title:       "Dune",
			Authors:     []string{"Frank Herbert"},
			Genre:       "science fiction",
			Price:       12.99,
			Rating:      4.5,
			Store:       "store_a",
			Description: "Desert planet epic",
		},
	}

	converted := pointToQdrant(p)
	got := extractPayload(converted.Payload)

	if got.Title != p.Payload.Title {
		t.Errorf("Title = %q, want %q", got.Title, p.Payload.Title)
	}
	if len(got.Authors) != 1 || got.Authors[0] != "Frank Herbert" {
		t.Errorf("Authors = %v, want [Frank Herbert]", got.Authors)
	}
	if got.Genre != "science fiction" || got.Store != "store_a" {
		t.Errorf("Genre/Store = %q/%q", got.Genre, got.Store)
	}
	if got.Price != 12.99 || got.Rating != 4.5 {
		t.Errorf("Price/Rating = %v/%v, want 12.99/4.5", got.Price, got.Rating)
	}
}
