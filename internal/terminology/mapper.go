// Package terminology implements the terminology mapping stage of the Tashih
// pipeline: scanning canonical text for spans matching known clinical-concept
// patterns and resolving them to standardized SNOMED-CT and ICD-11 codes.
//
// The matching pass is a greedy interval claim ordered by rule specificity:
// rules are pre-sorted by descending length of their primary synonym, each
// candidate match claims its character span, and any later candidate whose
// span intersects a claimed one is discarded. The retained entity set is
// therefore pairwise non-overlapping, with the most specific rule winning.
// This ordering is deliberate — which concept wins depends on rule priority,
// not on a globally optimal interval cover — and must be preserved.
//
// [Mapper.MapTerms] is a total function: for any input string it returns a
// structurally valid result and never panics out. The Mapper is read-only
// after construction and safe for concurrent use.
package terminology

import (
	"log/slog"
	"regexp"
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hakimlabs/tashih/internal/rules"
	"github.com/hakimlabs/tashih/pkg/types"
)

// Empirical context-enhancement constants. The values have no documented
// derivation and are kept configurable pending calibration against
// clinician-validated data.
const (
	defaultContextWindow = 50
	defaultTemporalBoost = 0.10
	defaultSeverityBoost = 0.05
)

// Option is a functional option for configuring a [Mapper].
type Option func(*Mapper)

// WithContextWindow sets the number of runes inspected on each side of a
// matched span during context enhancement. Default: 50.
func WithContextWindow(runes int) Option {
	return func(m *Mapper) {
		m.contextWindow = runes
	}
}

// WithTemporalBoost sets the confidence increment applied when a temporal
// marker is found near a match. Default: 0.10.
func WithTemporalBoost(boost float64) Option {
	return func(m *Mapper) {
		m.temporalBoost = boost
	}
}

// WithSeverityBoost sets the confidence increment applied when a severity
// marker is found near a match. Default: 0.05.
func WithSeverityBoost(boost float64) Option {
	return func(m *Mapper) {
		m.severityBoost = boost
	}
}

// Mapper resolves clinical concepts in text using an immutable rule table.
type Mapper struct {
	table *rules.MappingTable

	contextWindow int
	temporalBoost float64
	severityBoost float64
}

// New returns a [Mapper] backed by the given table. The table must not be
// mutated afterwards.
func New(table *rules.MappingTable, opts ...Option) *Mapper {
	m := &Mapper{
		table:         table,
		contextWindow: defaultContextWindow,
		temporalBoost: defaultTemporalBoost,
		severityBoost: defaultSeverityBoost,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// span is a claimed half-open rune-offset range.
type span struct {
	start, end int
}

// intersects reports whether s overlaps other: starting inside, ending
// inside, or fully containing it.
func (s span) intersects(other span) bool {
	return (s.start >= other.start && s.start < other.end) ||
		(s.end > other.start && s.end <= other.end) ||
		(s.start <= other.start && s.end >= other.end)
}

// MapTerms scans text for clinical concepts and returns the mapping result.
// languageHint is the upstream language tag ("ar", "en", ...); it is
// advisory only — matching itself is script-agnostic.
//
// MapTerms never fails: on an internal panic it returns an empty result.
func (m *Mapper) MapTerms(text, languageHint string) (result types.MappingResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("terminology mapping panic recovered", "panic", r)
			result = types.MappingResult{
				OriginalText:     text,
				Entities:         []types.MedicalEntity{},
				MappedTerms:      []types.StandardizedTerm{},
				Confidence:       0,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			}
		}
	}()

	runes := []rune(text)
	runeAt := runeOffsets(text)

	entities := []types.MedicalEntity{}
	var matched []rules.MappingRule // rule per entity, same index
	var claimed []span

	// Greedy claim pass in specificity order.
	for _, rule := range m.table.Rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			s := span{start: runeAt[loc[0]], end: runeAt[loc[1]]}

			overlaps := false
			for _, c := range claimed {
				if s.intersects(c) {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			claimed = append(claimed, s)

			entities = append(entities, types.MedicalEntity{
				Text:       text[loc[0]:loc[1]],
				Category:   rule.Category,
				Start:      s.start,
				End:        s.end,
				Confidence: rule.Confidence,
				SNOMED:     rule.SNOMED,
				ICD11:      rule.ICD11,
			})
			matched = append(matched, rule)
		}
	}

	// Context enhancement: temporal and severity boosts are independent,
	// both may apply, each capped at 1.0.
	for i := range entities {
		before, after := m.contextOf(runes, entities[i].Start, entities[i].End)
		if matchesAny(m.table.Temporal, before, after) {
			entities[i].Confidence = clamp(entities[i].Confidence + m.temporalBoost)
		}
		if matchesAny(m.table.Severity, before, after) {
			entities[i].Confidence = clamp(entities[i].Confidence + m.severityBoost)
		}
	}

	// Materialize terms from the enhanced entities.
	terms := make([]types.StandardizedTerm, 0, len(entities))
	for i, e := range entities {
		terms = append(terms, newTerm(e, matched[i]))
	}

	resolved := resolveConflicts(terms)

	var confidence float64
	if len(resolved) > 0 {
		var sum float64
		for _, t := range resolved {
			sum += t.Confidence
		}
		confidence = sum / float64(len(resolved))
	}

	return types.MappingResult{
		OriginalText:     text,
		Entities:         entities,
		MappedTerms:      resolved,
		Confidence:       confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// newTerm converts a retained entity into its externally visible form. The
// original-script text is preserved separately from the rule's English gloss
// when the matched span is not already English.
func newTerm(e types.MedicalEntity, rule rules.MappingRule) types.StandardizedTerm {
	t := types.StandardizedTerm{
		OriginalText: e.Text,
		EnglishText:  rule.Primary(),
		Category:     rule.Category,
		SNOMED:       rule.SNOMED,
		ICD11:        rule.ICD11,
		Confidence:   e.Confidence,
		Synonyms:     rule.Synonyms,
	}
	if t.EnglishText == "" {
		t.EnglishText = e.Text
	}
	if containsArabic(e.Text) {
		t.SourceLanguageText = e.Text
	}
	return t
}

// resolveConflicts deduplicates terms mapping to the same clinical concept.
// Terms are grouped by their (SNOMED code, ICD-11 code) pair; within a group
// only the highest-confidence term survives. Output is sorted by confidence
// descending, stable with respect to match order.
func resolveConflicts(terms []types.StandardizedTerm) []types.StandardizedTerm {
	type slot struct {
		term  types.StandardizedTerm
		order int
	}
	unique := make(map[string]slot, len(terms))
	orderKeys := []string{}

	for i, t := range terms {
		key := t.SNOMED.Code + "_" + t.ICD11.Code
		existing, ok := unique[key]
		if !ok {
			unique[key] = slot{term: t, order: i}
			orderKeys = append(orderKeys, key)
			continue
		}
		if t.Confidence > existing.term.Confidence {
			unique[key] = slot{term: t, order: existing.order}
		}
	}

	out := make([]types.StandardizedTerm, 0, len(unique))
	for _, key := range orderKeys {
		out = append(out, unique[key].term)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// contextOf returns the symmetric rune windows immediately before and after
// the span [start, end).
func (m *Mapper) contextOf(runes []rune, start, end int) (before, after string) {
	lo := start - m.contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + m.contextWindow
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:start]), string(runes[end:hi])
}

// matchesAny reports whether any pattern matches either context window.
func matchesAny(patterns []*regexp.Regexp, before, after string) bool {
	for _, p := range patterns {
		if p.MatchString(before) || p.MatchString(after) {
			return true
		}
	}
	return false
}

// runeOffsets returns a table mapping every byte offset in s (plus the end
// offset) to its rune offset, so regexp byte indices can be reported as
// character positions. Bytes inside a multi-byte rune map to that rune's
// index; regexp match boundaries always fall on rune starts anyway.
func runeOffsets(s string) []int {
	offsets := make([]int, len(s)+1)
	rc := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < size; j++ {
			offsets[i+j] = rc
		}
		i += size
		rc++
	}
	offsets[len(s)] = rc
	return offsets
}

func containsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
