package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
)

// Search performs a dense vector search over book embeddings.
func (c *Client) Search(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: collectionName(collection),
		Query:          qdrant.NewQueryDense(req.Vector),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(req.WithPayload),
	}

	if req.Filter != nil {
		queryPoints.Filter = buildSearchFilter(req.Filter)
	}

	if req.ScoreThreshold != nil {
		queryPoints.ScoreThreshold = req.ScoreThreshold
	}

	results, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, classifyIndexError("search", err)
	}

	return scoredPointsToResults(results), nil
}

// classifyIndexError maps transport-level failures to an index outage so
// callers can distinguish "no results" from "index down".
func classifyIndexError(op string, err error) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return errors.IndexUnavailableError(op+" failed", err)
		}
	}
	return errors.InternalError(op+" failed", err)
}

// buildSearchFilter builds a Qdrant filter from SearchFilter.
func buildSearchFilter(f *SearchFilter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var conditions []*qdrant.Condition

	if len(f.Stores) > 0 {
		conditions = append(conditions, keywordsCondition("store", f.Stores))
	}

	if len(f.Genres) > 0 {
		conditions = append(conditions, keywordsCondition("genre", f.Genres))
	}

	if f.PriceMin != nil || f.PriceMax != nil {
		conditions = append(conditions, rangeCondition("price", f.PriceMin, f.PriceMax))
	}

	if f.RatingMin != nil {
		conditions = append(conditions, rangeCondition("rating", f.RatingMin, nil))
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

// keywordsCondition matches a keyword field against any of the values.
func keywordsCondition(key string, values []string) *qdrant.Condition {
	if len(values) == 1 {
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: key,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{
							Keyword: values[0],
						},
					},
				},
			},
		}
	}

	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keywords{
						Keywords: &qdrant.RepeatedStrings{
							Strings: values,
						},
					},
				},
			},
		},
	}
}

// rangeCondition constrains a numeric field to [min, max]; nil bounds
// are open.
func rangeCondition(key string, min, max *float64) *qdrant.Condition {
	r := &qdrant.Range{}
	if min != nil {
		r.Gte = min
	}
	if max != nil {
		r.Lte = max
	}

	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   key,
				Range: r,
			},
		},
	}
}

// scoredPointsToResults converts Qdrant scored points to SearchResults.
func scoredPointsToResults(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))

	for _, p := range points {
		results = append(results, SearchResult{
			ID:      pointIDString(p.Id),
			Score:   p.Score,
			Payload: extractPayload(p.Payload),
		})
	}

	return results
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	}
	return ""
}

// extractPayload extracts BookPayload from a Qdrant payload map.
func extractPayload(payload map[string]*qdrant.Value) BookPayload {
	return BookPayload{
		Title:       getStringValue(payload, "title"),
		Authors:     getStringSliceValue(payload, "authors"),
		Genre:       getStringValue(payload, "genre"),
		Price:       getFloatValue(payload, "price"),
		Rating:      getFloatValue(payload, "rating"),
		Store:       getStringValue(payload, "store"),
		Description: getStringValue(payload, "description"),
	}
}

// Helper functions to extract values from Qdrant payload

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}

func getFloatValue(payload map[string]*qdrant.Value, key string) float64 {
	if v, ok := payload[key]; ok {
		switch fv := v.Kind.(type) {
		case *qdrant.Value_DoubleValue:
			return fv.DoubleValue
		case *qdrant.Value_IntegerValue:
			return float64(fv.IntegerValue)
		}
	}
	return 0
}

func getStringSliceValue(payload map[string]*qdrant.Value, key string) []string {
	if v, ok := payload[key]; ok {
		if lv, ok := v.Kind.(*qdrant.Value_ListValue); ok {
			result := make([]string, 0, len(lv.ListValue.Values))
			for _, item := range lv.ListValue.Values {
				if sv, ok := item.Kind.(*qdrant.Value_StringValue); ok {
					result = append(result, sv.StringValue)
				}
			}
			return result
		}
	}
	return nil
}
