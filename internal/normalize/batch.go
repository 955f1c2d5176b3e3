package normalize

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hakimlabs/tashih/pkg/types"
)

// NormalizeMany normalizes a batch of texts with a bounded worker pool.
// Iterations are independent, so they run in parallel; the output slice
// matches the input order. The only error returned is ctx cancellation.
func (n *Normalizer) NormalizeMany(ctx context.Context, texts []string, dialectHint string) ([]types.NormalizationResult, error) {
	results := make([]types.NormalizationResult, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = n.Normalize(text, dialectHint)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stats summarizes a batch of normalization results for monitoring.
type Stats struct {
	TotalTexts          int            `json:"total_texts"`
	AvgTransformations  float64        `json:"avg_transformations"`
	AvgConfidence       float64        `json:"avg_confidence"`
	DialectDistribution map[string]int `json:"dialect_distribution"`
}

// Statistics aggregates a batch of results: mean transformation count, mean
// confidence, and the distribution of detected dialects.
func Statistics(results []types.NormalizationResult) Stats {
	s := Stats{
		TotalTexts:          len(results),
		DialectDistribution: make(map[string]int),
	}
	if len(results) == 0 {
		return s
	}

	var totalTransformations int
	var totalConfidence float64
	for _, r := range results {
		s.DialectDistribution[r.DetectedDialect]++
		totalTransformations += len(r.Transformations)
		totalConfidence += r.Confidence
	}
	s.AvgTransformations = float64(totalTransformations) / float64(len(results))
	s.AvgConfidence = totalConfidence / float64(len(results))
	return s
}
