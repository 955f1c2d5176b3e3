// Package pipeline sequences the transcription stages: conditional dialect
// normalization, terminology mapping, and clinical summary assembly.
//
// The flow is strictly linear. A transcript is received, normalized only when
// it is (or looks like) Arabic, always mapped, then summarized. No stage
// calls back into an earlier one, and all stages operate over immutable rule
// tables, so a single [Pipeline] is safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hakimlabs/tashih/internal/normalize"
	"github.com/hakimlabs/tashih/internal/observe"
	"github.com/hakimlabs/tashih/internal/terminology"
	"github.com/hakimlabs/tashih/pkg/types"
)

// NoTermsSummary is the summary used when mapping retained zero terms. An
// empty term list is a valid outcome, not a failure.
const NoTermsSummary = "No medical terms detected in the transcription."

// langArabic is the ISO 639-1 tag that triggers the normalization stage.
const langArabic = "ar"

// Option customises a [Pipeline].
type Option func(*Pipeline)

// WithMetrics attaches pipeline instruments. Without it no metrics are
// recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline orchestrates normalization and terminology mapping over a single
// transcript.
type Pipeline struct {
	normalizer *normalize.Normalizer
	mapper     *terminology.Mapper
	metrics    *observe.Metrics
}

// New builds a [Pipeline] from its two stages.
func New(n *normalize.Normalizer, m *terminology.Mapper, opts ...Option) *Pipeline {
	p := &Pipeline{normalizer: n, mapper: m}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full pipeline over one transcript and assembles the final
// result. It never panics out: an uncaught panic in any stage is converted
// into a result with Success false and the panic message in Error.
//
// Normalization runs when the upstream language tag is Arabic OR the text
// contains Arabic-script runes OR language detection identifies Arabic. The
// explicit OR exists because upstream tags are unreliable on short
// utterances. Mapping always runs.
func (p *Pipeline) Process(ctx context.Context, in types.TranscriptInput) (result types.TranscriptionResult) {
	start := time.Now()

	ctx, span := observe.StartSpan(ctx, "pipeline.Process",
		trace.WithAttributes(attribute.Int("transcript.length", len(in.Text))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			observe.Logger(ctx).Error("pipeline panic recovered", "panic", r)
			result = types.TranscriptionResult{
				Success:                 false,
				OriginalText:            in.Text,
				TranscriptionDurationMs: in.DurationMs,
				NormalizedText:          in.Text,
				MedicalTerms:            []types.StandardizedTerm{},
				MedicalSummary:          NoTermsSummary,
				MedicalCategories:       []types.Category{},
				TotalProcessingTimeMs:   time.Since(start).Milliseconds(),
				Error:                   fmt.Sprint(r),
			}
		}
		p.metrics.RecordTranscript(ctx, time.Since(start).Seconds(), result.Success)
	}()

	lang := effectiveLanguage(in)
	span.SetAttributes(attribute.String("transcript.language", lang))

	text := in.Text
	var normResult *types.NormalizationResult
	if lang == langArabic || containsArabic(in.Text) {
		ns := time.Now()
		nr := p.normalizer.Normalize(in.Text, "")
		if p.metrics != nil {
			p.metrics.NormalizeDuration.Record(ctx, time.Since(ns).Seconds())
		}
		p.metrics.RecordTransformations(ctx, nr.Transformations)
		normResult = &nr
		text = nr.NormalizedText

		observe.Logger(ctx).Debug("transcript normalized",
			"dialect", nr.DetectedDialect,
			"transformations", len(nr.Transformations))
	}

	ms := time.Now()
	mapping := p.mapper.MapTerms(text, lang)
	if p.metrics != nil {
		p.metrics.MappingDuration.Record(ctx, time.Since(ms).Seconds())
	}
	p.metrics.RecordTerms(ctx, mapping.MappedTerms)

	summary, categories := Summarize(mapping.MappedTerms)

	observe.Logger(ctx).Info("transcript processed",
		"language", lang,
		"terms", len(mapping.MappedTerms),
		"categories", len(categories))

	return types.TranscriptionResult{
		Success:                 true,
		OriginalText:            in.Text,
		DetectedLanguage:        lang,
		TranscriptionDurationMs: in.DurationMs,
		NormalizedText:          text,
		MedicalTerms:            mapping.MappedTerms,
		MedicalSummary:          summary,
		MedicalCategories:       categories,
		Normalization:           normResult,
		Mapping:                 &mapping,
		TotalProcessingTimeMs:   time.Since(start).Milliseconds(),
	}
}

// Summarize derives the clinician-readable summary and the category list
// from mapped terms. Terms are grouped by category in order of first
// appearance; within each group the distinct English glosses keep their
// first-occurrence order and are joined by commas. Category sentences are
// joined by ". ".
func Summarize(terms []types.StandardizedTerm) (string, []types.Category) {
	if len(terms) == 0 {
		return NoTermsSummary, []types.Category{}
	}

	var order []types.Category
	glosses := map[types.Category][]string{}
	seen := map[types.Category]map[string]bool{}

	for _, t := range terms {
		if seen[t.Category] == nil {
			order = append(order, t.Category)
			seen[t.Category] = map[string]bool{}
		}
		if seen[t.Category][t.EnglishText] {
			continue
		}
		seen[t.Category][t.EnglishText] = true
		glosses[t.Category] = append(glosses[t.Category], t.EnglishText)
	}

	parts := make([]string, 0, len(order))
	for _, c := range order {
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(glosses[c], ", ")))
	}
	return strings.Join(parts, ". "), order
}

// effectiveLanguage resolves the language tag used for stage decisions and
// reporting. The upstream tag wins when present; otherwise the text itself is
// inspected, falling back to statistical detection for non-Arabic scripts.
func effectiveLanguage(in types.TranscriptInput) string {
	if in.Language != "" {
		return in.Language
	}
	if containsArabic(in.Text) {
		return langArabic
	}
	info := whatlanggo.Detect(in.Text)
	if info.IsReliable() {
		return info.Lang.Iso6391()
	}
	return ""
}

func containsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}
