package retrieval

import (
	"sort"

	"github.com/shelfsearch/shelf-search/internal/catalog"
)

// rankWeights blends similarity, rating, and store diversity into the
// composite score. Weights are normalized to sum to one.
type rankWeights struct {
	similarity float64
	rating     float64
	diversity  float64
}

func newRankWeights(similarity, rating, diversity float64) rankWeights {
	total := similarity + rating + diversity
	if total <= 0 {
		return rankWeights{similarity: 0.7, rating: 0.2, diversity: 0.1}
	}
	return rankWeights{
		similarity: similarity / total,
		rating:     rating / total,
		diversity:  diversity / total,
	}
}

// rankItems computes composite scores and orders items best first. When
// withDiversity is set, a per-store component decays as a store
// accumulates slots, so a strong runner-up from the other store can
// overtake a weaker pile-on. Cross-store queries (comparison, analytics)
// want that; a plain search must keep equal candidates in index order.
func rankItems(items []Item, w rankWeights, withDiversity bool) {
	// First pass orders by similarity so the diversity decay sees the
	// strongest candidates first.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Similarity > items[j].Similarity
	})

	storeSeen := make(map[string]int)
	for i := range items {
		item := &items[i]

		var diversity float64
		if withDiversity {
			diversity = 1.0 / float64(1+storeSeen[item.Book.Store])
			storeSeen[item.Book.Store]++
		}

		item.Score = w.similarity*item.Similarity +
			w.rating*(item.Book.Rating/5.0) +
			w.diversity*diversity
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// applySort overrides the composite ordering when the user asked for an
// explicit one. Relevance keeps the composite order.
func applySort(items []Item, key *catalog.SortKey) {
	if key == nil {
		return
	}

	switch *key {
	case catalog.SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Price < items[j].Book.Price
		})
	case catalog.SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Price > items[j].Book.Price
		})
	case catalog.SortRatingDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Rating > items[j].Book.Rating
		})
	case catalog.SortRelevance:
		// Composite order already holds.
	}
}
