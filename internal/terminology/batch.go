package terminology

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hakimlabs/tashih/pkg/types"
)

// MapMany maps a batch of texts with a bounded worker pool. Iterations are
// independent, so they run in parallel; the output slice matches the input
// order. The only error returned is ctx cancellation.
func (m *Mapper) MapMany(ctx context.Context, texts []string, languageHint string) ([]types.MappingResult, error) {
	results := make([]types.MappingResult, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = m.MapTerms(text, languageHint)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stats summarizes a batch of mapping results for monitoring.
type Stats struct {
	TotalTexts           int                    `json:"total_texts"`
	TotalEntities        int                    `json:"total_entities"`
	AvgEntitiesPerText   float64                `json:"avg_entities_per_text"`
	AvgConfidence        float64                `json:"avg_confidence"`
	CategoryDistribution map[types.Category]int `json:"category_distribution"`
}

// Statistics aggregates a batch of results: entity counts, mean entities per
// text, mean confidence, and the category distribution across all entities.
func Statistics(results []types.MappingResult) Stats {
	s := Stats{
		TotalTexts:           len(results),
		CategoryDistribution: make(map[types.Category]int),
	}
	if len(results) == 0 {
		return s
	}

	var totalConfidence float64
	for _, r := range results {
		s.TotalEntities += len(r.Entities)
		totalConfidence += r.Confidence
		for _, e := range r.Entities {
			s.CategoryDistribution[e.Category]++
		}
	}
	s.AvgEntitiesPerText = float64(s.TotalEntities) / float64(len(results))
	s.AvgConfidence = totalConfidence / float64(len(results))
	return s
}
