// Package embedding turns query and document text into dense vectors.
package embedding

import (
	"context"
)

// Embedder generates dense embeddings for texts.
type Embedder interface {
	// EmbedText generates an embedding for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector width this embedder produces.
	Dimension() int
}
