package retrieval

import (
	"sort"
)

// storeStats aggregates the candidate pool per store, sorted by store
// name for stable output.
func storeStats(items []Item) []StoreStats {
	type acc struct {
		count       int
		priceSum    float64
		ratingSum   float64
		minPrice    float64
		maxPrice    float64
		initialized bool
	}

	byStore := make(map[string]*acc)
	for _, item := range items {
		a := byStore[item.Book.Store]
		if a == nil {
			a = &acc{}
			byStore[item.Book.Store] = a
		}

		a.count++
		a.priceSum += item.Book.Price
		a.ratingSum += item.Book.Rating
		if !a.initialized || item.Book.Price < a.minPrice {
			a.minPrice = item.Book.Price
		}
		if !a.initialized || item.Book.Price > a.maxPrice {
			a.maxPrice = item.Book.Price
		}
		a.initialized = true
	}

	stores := make([]string, 0, len(byStore))
	for store := range byStore {
		stores = append(stores, store)
	}
	sort.Strings(stores)

	stats := make([]StoreStats, 0, len(stores))
	for _, store := range stores {
		a := byStore[store]
		stats = append(stats, StoreStats{
			Store:     store,
			Count:     a.count,
			AvgPrice:  a.priceSum / float64(a.count),
			MinPrice:  a.minPrice,
			MaxPrice:  a.maxPrice,
			AvgRating: a.ratingSum / float64(a.count),
		})
	}

	return stats
}

// genreDistribution counts genres over the candidate pool.
func genreDistribution(items []Item) map[string]int {
	dist := make(map[string]int)
	for _, item := range items {
		if item.Book.Genre == "" {
			continue
		}
		dist[item.Book.Genre]++
	}
	return dist
}
