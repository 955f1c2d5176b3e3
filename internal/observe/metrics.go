// Package observe provides OpenTelemetry metrics, tracing and logging
// helpers shared by the normalization, terminology mapping and pipeline
// packages.
package observe

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hakimlabs/tashih/pkg/types"
)

const meterName = "github.com/hakimlabs/tashih"

// latencyBuckets cover the expected stage durations, from sub-millisecond
// rule passes up to multi-second batch runs.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// Metrics holds the instruments recorded by the transcription pipeline.
type Metrics struct {
	NormalizeDuration metric.Float64Histogram
	MappingDuration   metric.Float64Histogram
	PipelineDuration  metric.Float64Histogram

	TranscriptsProcessed metric.Int64Counter
	TermsMapped          metric.Int64Counter
	Transformations      metric.Int64Counter
}

// NewMetrics creates all instruments on a meter from the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.NormalizeDuration, err = meter.Float64Histogram(
		"tashih.normalize.duration",
		metric.WithDescription("Dialect normalization duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("observe: create normalize duration histogram: %w", err)
	}

	if m.MappingDuration, err = meter.Float64Histogram(
		"tashih.mapping.duration",
		metric.WithDescription("Terminology mapping duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("observe: create mapping duration histogram: %w", err)
	}

	if m.PipelineDuration, err = meter.Float64Histogram(
		"tashih.pipeline.duration",
		metric.WithDescription("End to end transcript processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("observe: create pipeline duration histogram: %w", err)
	}

	if m.TranscriptsProcessed, err = meter.Int64Counter(
		"tashih.transcripts.processed",
		metric.WithDescription("Transcripts processed by the pipeline, partitioned by status"),
	); err != nil {
		return nil, fmt.Errorf("observe: create transcripts counter: %w", err)
	}

	if m.TermsMapped, err = meter.Int64Counter(
		"tashih.terms.mapped",
		metric.WithDescription("Standardized terms produced, partitioned by category"),
	); err != nil {
		return nil, fmt.Errorf("observe: create terms counter: %w", err)
	}

	if m.Transformations, err = meter.Int64Counter(
		"tashih.transformations.applied",
		metric.WithDescription("Normalization transformations applied, partitioned by kind"),
	); err != nil {
		return nil, fmt.Errorf("observe: create transformations counter: %w", err)
	}

	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns process-wide instruments created on the global
// meter provider. Instrument creation only fails on invalid names, so a
// failure here is a programming error and panics.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTranscript records a completed pipeline run.
func (m *Metrics) RecordTranscript(ctx context.Context, seconds float64, success bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	m.PipelineDuration.Record(ctx, seconds)
	m.TranscriptsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordTerms records the mapped terms of one transcript by category.
func (m *Metrics) RecordTerms(ctx context.Context, terms []types.StandardizedTerm) {
	if m == nil {
		return
	}
	for _, t := range terms {
		m.TermsMapped.Add(ctx, 1, metric.WithAttributes(attribute.String("category", string(t.Category))))
	}
}

// RecordTransformations records applied normalization transformations by kind.
func (m *Metrics) RecordTransformations(ctx context.Context, ts []types.Transformation) {
	if m == nil {
		return
	}
	for _, t := range ts {
		m.Transformations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(t.Kind))))
	}
}
