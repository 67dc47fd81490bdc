package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shelfsearch/shelf-search/internal/bus"
	"github.com/shelfsearch/shelf-search/internal/catalog"
	"github.com/shelfsearch/shelf-search/internal/pkg/hash"
	"github.com/shelfsearch/shelf-search/internal/qdrant"
)

// embedBatchSize bounds how many descriptions go to the embedder per call.
const embedBatchSize = 32

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Load book records into the vector index",
		Long: `Read book records from a JSON or YAML file, embed them, and upsert
them into the Qdrant collection. The collection is created on first use.

Examples:
  shelf-search index --file books.json
  shelf-search index --file inventory.yaml`,
		RunE: runIndex,
	}

	cmd.Flags().StringP("file", "f", "", "book records file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	filePath, _ := cmd.Flags().GetString("file")

	books, err := readBooks(filePath)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return fmt.Errorf("no book records in %s", filePath)
	}

	a, err := buildApp(configPath, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	collection := a.cfg.Qdrant.Collection

	if err := ensureCollection(ctx, a, collection); err != nil {
		return err
	}

	points, err := embedBooks(ctx, a, books)
	if err != nil {
		return err
	}

	if err := a.qdrant.UpsertBooksBatch(ctx, collection, points, 64); err != nil {
		return fmt.Errorf("failed to upsert books: %w", err)
	}

	publishIndexed(ctx, a, collection, len(points))

	a.log.Info("indexed books", "collection", collection, "count", len(points))
	fmt.Printf("Indexed %d books into %s.\n", len(points), collection)
	return nil
}

// readBooks loads and validates book records from a JSON or YAML file.
func readBooks(path string) ([]catalog.BookRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var books []catalog.BookRecord
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &books)
	default:
		err = json.Unmarshal(data, &books)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range books {
		if books[i].ID == "" {
			books[i].ID = hash.BookID(books[i].Store, books[i].Title)
		}
		if err := books[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid record in %s: %w", path, err)
		}
	}
	return books, nil
}

func ensureCollection(ctx context.Context, a *app, collection string) error {
	exists, err := a.qdrant.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	cfg := qdrant.DefaultCollectionConfig(collection)
	cfg.VectorSize = uint64(a.embedder.Dimension())
	if err := a.qdrant.CreateCollection(ctx, cfg); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	a.log.Info("created collection", "name", collection, "vector_size", cfg.VectorSize)
	return nil
}

// embedBooks turns book records into index points, embedding in batches.
func embedBooks(ctx context.Context, a *app, books []catalog.BookRecord) ([]qdrant.Point, error) {
	points := make([]qdrant.Point, 0, len(books))

	for start := 0; start < len(books); start += embedBatchSize {
		end := min(start+embedBatchSize, len(books))
		batch := books[start:end]

		texts := make([]string, len(batch))
		for i, book := range batch {
			texts[i] = book.EmbedText()
		}

		vectors, err := a.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed books: %w", err)
		}

		for i, book := range batch {
			points = append(points, qdrant.Point{
				ID:     book.ID,
				Vector: vectors[i],
				Payload: qdrant.BookPayload{
					Title:       book.Title,
					Authors:     book.Authors,
					Genre:       book.Genre,
					Price:       book.Price,
					Rating:      book.Rating,
					Store:       book.Store,
					Description: book.Description,
				},
			})
		}
	}

	return points, nil
}

func publishIndexed(ctx context.Context, a *app, collection string, count int) {
	event := bus.NewEvent(bus.TopicBooksIndexed, "cli", bus.BooksIndexedPayload{
		Collection: collection,
		Count:      count,
	})
	if err := a.events.Publish(ctx, bus.TopicBooksIndexed, event); err != nil {
		a.log.WithError(err).Warn("failed to publish index event")
	}
}
