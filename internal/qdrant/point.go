package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// UpsertBooks inserts or updates book points in a collection.
func (c *Client) UpsertBooks(ctx context.Context, collection string, points []Point) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, pointToQdrant(p))
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName(collection),
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true), // Wait for indexing
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// UpsertBooksBatch upserts book points in batches to bound memory use.
func (c *Client) UpsertBooksBatch(ctx context.Context, collection string, points []Point, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}

		if err := c.UpsertBooks(ctx, collection, points[i:end]); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteBooks deletes book points based on filter criteria.
func (c *Client) DeleteBooks(ctx context.Context, collection string, filter DeleteFilter) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	name := collectionName(collection)

	if len(filter.IDs) > 0 {
		pointIDs := make([]*qdrant.PointId, len(filter.IDs))
		for i, id := range filter.IDs {
			pointIDs[i] = qdrant.NewIDUUID(id)
		}

		_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{
						Ids: pointIDs,
					},
				},
			},
			Wait: qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("failed to delete by IDs: %w", err)
		}
		return nil
	}

	if filter.Store == "" {
		return fmt.Errorf("no valid delete criteria specified")
	}

	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: buildSearchFilter(&SearchFilter{Stores: []string{filter.Store}}),
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete by store: %w", err)
	}

	return nil
}

// CountBooks returns the number of books matching the filter.
func (c *Client) CountBooks(ctx context.Context, collection string, filter *SearchFilter) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0, fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	countReq := &qdrant.CountPoints{
		CollectionName: collectionName(collection),
		Exact:          qdrant.PtrOf(true),
	}

	if filter != nil {
		countReq.Filter = buildSearchFilter(filter)
	}

	count, err := c.client.Count(ctx, countReq)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}

	return count, nil
}

// ScrollBooks retrieves all books matching the filter without vector
// search, paging through the collection.
func (c *Client) ScrollBooks(ctx context.Context, collection string, filter *SearchFilter) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var results []SearchResult
	var offset *qdrant.PointId
	const batchSize = 100

	for {
		scrollReq := &qdrant.ScrollPoints{
			CollectionName: collectionName(collection),
			Filter:         buildSearchFilter(filter),
			Limit:          qdrant.PtrOf(uint32(batchSize)),
			WithPayload:    qdrant.NewWithPayload(true),
			Offset:         offset,
		}

		points, err := c.client.Scroll(ctx, scrollReq)
		if err != nil {
			return nil, classifyIndexError("scroll", err)
		}

		for _, p := range points {
			results = append(results, SearchResult{
				ID:      pointIDString(p.Id),
				Payload: extractPayload(p.Payload),
			})
		}

		if len(points) < batchSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	return results, nil
}

// pointToQdrant converts a Point to a Qdrant PointStruct.
func pointToQdrant(p Point) *qdrant.PointStruct {
	// qdrant.NewValueMap only accepts []any for list values, not []string.
	authors := make([]any, len(p.Payload.Authors))
	for i, a := range p.Payload.Authors {
		authors[i] = a
	}
	payload := map[string]any{
		"title":       p.Payload.Title,
		"authors":     authors,
		"genre":       p.Payload.Genre,
		"price":       p.Payload.Price,
		"rating":      p.Payload.Rating,
		"store":       p.Payload.Store,
		"description": p.Payload.Description,
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(p.ID),
		Vectors: qdrant.NewVectorsDense(p.Vector),
		Payload: qdrant.NewValueMap(payload),
	}
}
