package retrieval

import (
	"context"
	"slices"
	"time"

	"github.com/shelfsearch/shelf-search/internal/catalog"
	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/embedding"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
	"github.com/shelfsearch/shelf-search/internal/qdrant"
	"github.com/shelfsearch/shelf-search/internal/query"
)

// Index is the vector index surface the retriever needs.
type Index interface {
	Search(ctx context.Context, collection string, req qdrant.SearchRequest) ([]qdrant.SearchResult, error)
}

// Retriever embeds the query, searches the index, and ranks the candidate
// pool. It over-fetches so filtering and reranking have enough material.
type Retriever struct {
	index      Index
	embedder   embedding.Embedder
	collection string
	cfg        config.RetrievalConfig
	weights    rankWeights
	log        *logger.Logger
}

// NewRetriever creates a retriever over the given index and embedder.
func NewRetriever(index Index, embedder embedding.Embedder, collection string, cfg config.RetrievalConfig, log *logger.Logger) *Retriever {
	if cfg.OverfetchMultiplier <= 0 {
		cfg.OverfetchMultiplier = 4
	}
	return &Retriever{
		index:      index,
		embedder:   embedder,
		collection: collection,
		cfg:        cfg,
		weights:    newRankWeights(cfg.SimilarityWeight, cfg.RatingWeight, cfg.DiversityWeight),
		log:        log,
	}
}

// Retrieve executes the spec against the index and returns the ranked
// result. No matches is an empty result; only infrastructure failures
// return an error.
func (r *Retriever) Retrieve(ctx context.Context, spec *query.Spec) (*Result, error) {
	if r.cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	result := &Result{}

	embedStart := time.Now()
	vector, err := r.embedder.EmbedText(ctx, spec.Text)
	if err != nil {
		return nil, errors.RetrievalUnavailableError("embedding service is unavailable", err)
	}
	result.Metadata.EmbedMs = time.Since(embedStart).Milliseconds()

	searchStart := time.Now()
	hits, err := r.index.Search(ctx, r.collection, qdrant.SearchRequest{
		Vector:      vector,
		Limit:       uint64(spec.Limit * r.cfg.OverfetchMultiplier),
		Filter:      filterFromEntities(spec.Entities),
		WithPayload: true,
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeIndexUnavailable) {
			return nil, errors.RetrievalUnavailableError("vector index is unavailable", err)
		}
		return nil, errors.RetrievalUnavailableError("search failed", err)
	}
	result.Metadata.SearchMs = time.Since(searchStart).Milliseconds()

	pool := enforceEntities(itemsFromHits(hits), spec.Entities)
	result.PoolSize = len(pool)

	rankStart := time.Now()
	withDiversity := spec.Intent == query.IntentComparison || spec.Aggregate
	rankItems(pool, r.weights, withDiversity)
	applySort(pool, spec.Entities.Sort)
	result.Metadata.RankMs = time.Since(rankStart).Milliseconds()

	if spec.Intent == query.IntentComparison || spec.Aggregate {
		result.StoreStats = storeStats(pool)
	}
	if spec.Aggregate {
		result.GenreDistribution = genreDistribution(pool)
	}

	if len(pool) > spec.Limit {
		pool = pool[:spec.Limit]
	}
	result.Items = pool

	r.log.Debug("retrieval complete",
		"query", spec.Text,
		"pool", result.PoolSize,
		"returned", len(result.Items),
		"embed_ms", result.Metadata.EmbedMs,
		"search_ms", result.Metadata.SearchMs,
	)

	return result, nil
}

// filterFromEntities translates extracted entities into index conditions.
// Everything expressible server-side is pushed down.
func filterFromEntities(e query.Entities) *qdrant.SearchFilter {
	f := &qdrant.SearchFilter{
		Stores:    e.Stores,
		Genres:    e.Genres,
		PriceMin:  e.PriceMin,
		PriceMax:  e.PriceMax,
		RatingMin: e.RatingMin,
	}
	if f.IsEmpty() {
		return nil
	}
	return f
}

// enforceEntities re-checks decoded payloads against the extracted
// constraints. The index already filtered server-side; this catches
// points whose payload drifted from the indexed conditions.
func enforceEntities(items []Item, e query.Entities) []Item {
	if e.IsEmpty() {
		return items
	}

	kept := items[:0]
	for _, item := range items {
		if matchesEntities(item.Book, e) {
			kept = append(kept, item)
		}
	}
	return kept
}

func matchesEntities(b catalog.BookRecord, e query.Entities) bool {
	if len(e.Stores) > 0 && !slices.Contains(e.Stores, b.Store) {
		return false
	}
	if len(e.Genres) > 0 && !slices.Contains(e.Genres, b.Genre) {
		return false
	}
	if e.PriceMin != nil && b.Price < *e.PriceMin {
		return false
	}
	if e.PriceMax != nil && b.Price > *e.PriceMax {
		return false
	}
	if e.RatingMin != nil && b.Rating < *e.RatingMin {
		return false
	}
	return true
}

func itemsFromHits(hits []qdrant.SearchResult) []Item {
	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, Item{
			ID:         h.ID,
			Book:       bookFromPayload(h.ID, h.Payload),
			Similarity: float64(h.Score),
		})
	}
	return items
}

func bookFromPayload(id string, p qdrant.BookPayload) catalog.BookRecord {
	return catalog.BookRecord{
		ID:          id,
		Title:       p.Title,
		Authors:     p.Authors,
		Genre:       p.Genre,
		Price:       p.Price,
		Rating:      p.Rating,
		Store:       p.Store,
		Description: p.Description,
	}
}
