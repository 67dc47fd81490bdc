package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/shelfsearch/shelf-search/internal/catalog"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

func book(title, genre, store string, price, rating float64) retrieval.Item {
	return retrieval.Item{
		ID: title,
		Book: catalog.BookRecord{
			ID:      title,
			Title:   title,
			Authors: []string{"Test Author"},
			Genre:   genre,
			Store:   store,
			Price:   price,
			Rating:  rating,
		},
	}
}

func mustGenerate(t *testing.T, spec *query.Spec, result *retrieval.Result) *Response {
	t.Helper()
	resp, err := NewTemplateGenerator(logger.Default()).Generate(context.Background(), spec, result)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Strategy != StrategyTemplate {
		t.Errorf("Strategy = %v, want %v", resp.Strategy, StrategyTemplate)
	}
	return resp
}

func TestTemplateSearch(t *testing.T) {
	result := &retrieval.Result{
		Items:    []retrieval.Item{book("Dune", "science fiction", "store_a", 12.99, 4.5)},
		PoolSize: 1,
	}
	spec := &query.Spec{Text: "find sci-fi", Intent: query.IntentSearch, Limit: 10}

	resp := mustGenerate(t, spec, result)

	for _, want := range []string{"Found 1 book", "Dune", "Test Author", "$12.99", "4.5", "Store A"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("response %q is missing %q", resp.Text, want)
		}
	}
}

func TestTemplateSearchTruncationNote(t *testing.T) {
	result := &retrieval.Result{
		Items:    []retrieval.Item{book("A", "fantasy", "store_a", 10, 4), book("B", "fantasy", "store_a", 11, 4)},
		PoolSize: 40,
	}
	spec := &query.Spec{Text: "fantasy", Intent: query.IntentSearch, Limit: 2}

	resp := mustGenerate(t, spec, result)
	if !strings.Contains(resp.Text, "Found 40 books") || !strings.Contains(resp.Text, "showing the top 2") {
		t.Errorf("response %q should mention pool size and truncation", resp.Text)
	}
}

func TestTemplateListCap(t *testing.T) {
	result := &retrieval.Result{PoolSize: 8}
	for i := 0; i < 8; i++ {
		result.Items = append(result.Items, book(string(rune('A'+i)), "fantasy", "store_a", 10, 4))
	}
	spec := &query.Spec{Text: "fantasy", Intent: query.IntentSearch, Limit: 8}

	resp := mustGenerate(t, spec, result)
	if got := strings.Count(resp.Text, "\n- "); got+1 > maxListedBooks+1 {
		t.Errorf("listed %d books, want at most %d", got, maxListedBooks)
	}
	if strings.Contains(resp.Text, "- F by") {
		t.Errorf("response lists books past the cap: %q", resp.Text)
	}
}

func TestTemplateNoResults(t *testing.T) {
	max := 5.0
	spec := &query.Spec{
		Text:     "fantasy under $5",
		Intent:   query.IntentSearch,
		Entities: query.Entities{PriceMax: &max},
		Limit:    10,
	}

	resp := mustGenerate(t, spec, &retrieval.Result{})
	if !strings.Contains(resp.Text, "No books matched") {
		t.Errorf("response %q should state no matches", resp.Text)
	}
	if !strings.Contains(resp.Text, "$5.00 price cap") {
		t.Errorf("response %q should hint at the price filter", resp.Text)
	}
}

func TestTemplateNoResultsWithoutEntities(t *testing.T) {
	spec := &query.Spec{Text: "xyzzy", Intent: query.IntentSearch, Limit: 10}

	resp := mustGenerate(t, spec, &retrieval.Result{})
	if strings.Contains(resp.Text, "relaxing") {
		t.Errorf("response %q suggests relaxing filters that were never set", resp.Text)
	}
}

func TestTemplateComparison(t *testing.T) {
	result := &retrieval.Result{
		Items:    []retrieval.Item{book("A", "fantasy", "store_a", 10, 4)},
		PoolSize: 3,
		StoreStats: []retrieval.StoreStats{
			{Store: "store_a", Count: 2, AvgPrice: 15, MinPrice: 10, MaxPrice: 20, AvgRating: 4.5},
			{Store: "store_b", Count: 1, AvgPrice: 12, MinPrice: 12, MaxPrice: 12, AvgRating: 3.0},
		},
	}
	spec := &query.Spec{Text: "compare stores", Intent: query.IntentComparison, Limit: 10}

	resp := mustGenerate(t, spec, result)
	for _, want := range []string{"Store A", "Store B", "$15.00", "$12.00", "Store B has the lower average price"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("response %q is missing %q", resp.Text, want)
		}
	}
}

func TestTemplateComparisonWithoutStats(t *testing.T) {
	result := &retrieval.Result{
		Items:    []retrieval.Item{book("A", "fantasy", "store_a", 10, 4)},
		PoolSize: 1,
	}
	spec := &query.Spec{Text: "compare", Intent: query.IntentComparison, Limit: 10}

	resp := mustGenerate(t, spec, result)
	if !strings.Contains(resp.Text, "Not enough data") {
		t.Errorf("response %q should admit missing comparison data", resp.Text)
	}
}

func TestTemplateAnalytics(t *testing.T) {
	result := &retrieval.Result{
		PoolSize:          12,
		GenreDistribution: map[string]int{"fantasy": 7, "mystery": 5},
		StoreStats: []retrieval.StoreStats{
			{Store: "store_a", Count: 12, AvgPrice: 14.5, AvgRating: 4.1},
		},
	}
	spec := &query.Spec{Text: "genre stats", Intent: query.IntentAnalytics, Limit: 10, Aggregate: true}

	resp := mustGenerate(t, spec, result)
	for _, want := range []string{"Analyzed 12", "fantasy: 7", "mystery: 5", "average price $14.50"} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("response %q is missing %q", resp.Text, want)
		}
	}
	// Most common genre listed first.
	if strings.Index(resp.Text, "fantasy") > strings.Index(resp.Text, "mystery") {
		t.Errorf("response %q lists genres out of frequency order", resp.Text)
	}
}

func TestTemplateInformation(t *testing.T) {
	item := book("Dune", "science fiction", "store_b", 12.99, 4.5)
	item.Book.Description = "Desert planet epic."
	result := &retrieval.Result{Items: []retrieval.Item{item}, PoolSize: 1}
	spec := &query.Spec{Text: "tell me about dune", Intent: query.IntentInformation, Limit: 10}

	resp := mustGenerate(t, spec, result)
	for _, want := range []string{"Dune by Test Author", "science fiction", "$12.99", "Desert planet epic."} {
		if !strings.Contains(resp.Text, want) {
			t.Errorf("response %q is missing %q", resp.Text, want)
		}
	}
}

func TestTemplateFilterWording(t *testing.T) {
	result := &retrieval.Result{
		Items:    []retrieval.Item{book("A", "fantasy", "store_a", 10, 4)},
		PoolSize: 1,
	}
	spec := &query.Spec{Text: "under $20", Intent: query.IntentFilter, Limit: 10}

	resp := mustGenerate(t, spec, result)
	if !strings.Contains(resp.Text, "1 book matches your criteria") {
		t.Errorf("response %q should use the filter phrasing", resp.Text)
	}
}
