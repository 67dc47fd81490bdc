package embedding

import (
	"context"
)

// CachedEmbedder wraps an Embedder with a cache. Only the texts missing
// from the cache hit the upstream API.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner Embedder, cache Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// EmbedText returns the cached embedding when present, otherwise embeds
// and stores the result.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := e.cache.Get(ctx, text); ok {
		return vector, nil
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(ctx, text, vector)
	return vector, nil
}

// EmbedTexts embeds a batch, serving cached entries and forwarding only
// the misses upstream. Result order matches the input.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vector, ok := e.cache.Get(ctx, text); ok {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for i, vector := range fresh {
		idx := missingIdx[i]
		vectors[idx] = vector
		e.cache.Set(ctx, texts[idx], vector)
	}

	return vectors, nil
}

// Dimension returns the wrapped embedder's vector width.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}
