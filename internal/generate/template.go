package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shelfsearch/shelf-search/internal/catalog"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

// maxListedBooks bounds how many items a template enumerates.
const maxListedBooks = 5

// TemplateGenerator renders deterministic per-intent responses. It is the
// always-available baseline and the fallback for the generative path.
type TemplateGenerator struct {
	log *logger.Logger
}

// NewTemplateGenerator creates a template generator.
func NewTemplateGenerator(log *logger.Logger) *TemplateGenerator {
	return &TemplateGenerator{log: log}
}

// Generate renders a response. It never fails: any spec and result pair
// produces usable text.
func (g *TemplateGenerator) Generate(_ context.Context, spec *query.Spec, result *retrieval.Result) (*Response, error) {
	var text string

	if len(result.Items) == 0 && !spec.Aggregate {
		text = noResultsText(spec)
	} else {
		switch spec.Intent {
		case query.IntentRecommendation:
			text = recommendationText(result)
		case query.IntentComparison:
			text = comparisonText(result)
		case query.IntentAnalytics:
			text = analyticsText(result)
		case query.IntentInformation:
			text = informationText(result)
		default:
			text = searchText(spec, result)
		}
	}

	return &Response{
		Text:     text,
		Strategy: StrategyTemplate,
	}, nil
}

func noResultsText(spec *query.Spec) string {
	var b strings.Builder
	b.WriteString("No books matched your query.")

	if !spec.Entities.IsEmpty() {
		b.WriteString(" Try relaxing your filters")
		var hints []string
		if spec.Entities.PriceMax != nil {
			hints = append(hints, fmt.Sprintf("the $%.2f price cap", *spec.Entities.PriceMax))
		}
		if spec.Entities.RatingMin != nil {
			hints = append(hints, fmt.Sprintf("the %.1f-star minimum", *spec.Entities.RatingMin))
		}
		if len(hints) > 0 {
			b.WriteString(", for example ")
			b.WriteString(strings.Join(hints, " or "))
		}
		b.WriteString(".")
	}

	return b.String()
}

func searchText(spec *query.Spec, result *retrieval.Result) string {
	var b strings.Builder

	if spec.Intent == query.IntentFilter {
		if result.PoolSize == 1 {
			b.WriteString("1 book matches your criteria")
		} else {
			fmt.Fprintf(&b, "%d books match your criteria", result.PoolSize)
		}
	} else {
		fmt.Fprintf(&b, "Found %d book%s", result.PoolSize, plural(result.PoolSize))
	}
	if result.PoolSize > len(result.Items) {
		fmt.Fprintf(&b, ", showing the top %d", len(result.Items))
	}
	b.WriteString(":\n")

	writeBookList(&b, result.Items)
	return b.String()
}

func recommendationText(result *retrieval.Result) string {
	var b strings.Builder
	b.WriteString("You might enjoy:\n")
	writeBookList(&b, result.Items)
	return b.String()
}

func comparisonText(result *retrieval.Result) string {
	if len(result.StoreStats) == 0 {
		return "Not enough data to compare stores for this query."
	}

	var b strings.Builder
	b.WriteString("Store comparison for your query:\n")

	for _, s := range result.StoreStats {
		fmt.Fprintf(&b, "- %s: %d matching book%s, average $%.2f (range $%.2f-$%.2f), average rating %.1f\n",
			catalog.StoreDisplayName(s.Store), s.Count, plural(s.Count),
			s.AvgPrice, s.MinPrice, s.MaxPrice, s.AvgRating)
	}

	if cheapest := cheapestStore(result.StoreStats); cheapest != "" {
		fmt.Fprintf(&b, "%s has the lower average price.\n", catalog.StoreDisplayName(cheapest))
	}

	return b.String()
}

func analyticsText(result *retrieval.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d matching book%s.\n", result.PoolSize, plural(result.PoolSize))

	if len(result.GenreDistribution) > 0 {
		b.WriteString("Genre distribution:\n")
		for _, g := range sortedGenres(result.GenreDistribution) {
			fmt.Fprintf(&b, "- %s: %d\n", g, result.GenreDistribution[g])
		}
	}

	for _, s := range result.StoreStats {
		fmt.Fprintf(&b, "%s: %d book%s, average price $%.2f, average rating %.1f\n",
			catalog.StoreDisplayName(s.Store), s.Count, plural(s.Count), s.AvgPrice, s.AvgRating)
	}

	return b.String()
}

func informationText(result *retrieval.Result) string {
	book := result.Items[0].Book

	var b strings.Builder
	fmt.Fprintf(&b, "%s by %s", book.Title, book.AuthorLine())
	if book.Genre != "" {
		fmt.Fprintf(&b, " (%s)", book.Genre)
	}
	fmt.Fprintf(&b, ". Priced at $%.2f with a %.1f rating, available at %s.",
		book.Price, book.Rating, catalog.StoreDisplayName(book.Store))
	if book.Description != "" {
		b.WriteString(" ")
		b.WriteString(book.Description)
	}

	return b.String()
}

func writeBookList(b *strings.Builder, items []retrieval.Item) {
	limit := len(items)
	if limit > maxListedBooks {
		limit = maxListedBooks
	}

	for _, item := range items[:limit] {
		book := item.Book
		fmt.Fprintf(b, "- %s by %s", book.Title, book.AuthorLine())
		if book.Genre != "" {
			fmt.Fprintf(b, " (%s)", book.Genre)
		}
		fmt.Fprintf(b, " - $%.2f, rated %.1f, at %s\n",
			book.Price, book.Rating, catalog.StoreDisplayName(book.Store))
	}
}

func cheapestStore(stats []retrieval.StoreStats) string {
	if len(stats) < 2 {
		return ""
	}

	cheapest := stats[0]
	for _, s := range stats[1:] {
		if s.AvgPrice < cheapest.AvgPrice {
			cheapest = s
		}
	}
	return cheapest.Store
}

func sortedGenres(dist map[string]int) []string {
	genres := make([]string, 0, len(dist))
	for g := range dist {
		genres = append(genres, g)
	}
	// Most common first, name as tie-break for stable output.
	sort.Slice(genres, func(i, j int) bool {
		if dist[genres[i]] != dist[genres[j]] {
			return dist[genres[i]] > dist[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
