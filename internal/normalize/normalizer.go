// Package normalize implements the dialect normalization stage of the Tashih
// pipeline: rewriting dialectal or mis-transcribed Arabic input toward a
// canonical lexical form before terminology mapping.
//
// Normalization is a fixed four-stage rewrite, each stage feeding the next:
//
//  1. Phonetic correction — token-level lookup of known mis-transcriptions.
//  2. Compound-phrase correction — multi-word phrase substitution, keyed in
//     post-phonetic spelling.
//  3. Dialect-specific rules — phonological, lexical, and morphological rule
//     groups, applied only when a dialect hint is known.
//  4. Domain normalization — medical vocabulary canonicalization, applied on
//     every call and idempotent by construction.
//
// Every substitution is recorded as a [types.Transformation]; the aggregate
// confidence is the mean over all recorded transformations, defaulting to
// 0.8 when the text needed no rewriting at all.
//
// [Normalizer.Normalize] is a total function: for any input string it
// returns a structurally valid result and never panics out. The Normalizer
// is read-only after construction and safe for concurrent use.
package normalize

import (
	"log/slog"
	"strings"

	"github.com/hakimlabs/tashih/internal/rules"
	"github.com/hakimlabs/tashih/pkg/types"
)

const (
	// phoneticConfidence is reported for single-token lookup corrections.
	phoneticConfidence = 0.95

	// compoundConfidence is reported for multi-word phrase corrections.
	// Phrase-level matches disambiguate context, so they rank above
	// single-token ones.
	compoundConfidence = 0.98

	// defaultConfidence is the aggregate confidence when no transformation
	// fired: the text is assumed already canonical, not low-confidence.
	defaultConfidence = 0.8
)

// DialectUnknown is the detected-dialect value reported when no usable
// dialect hint was supplied.
const DialectUnknown = "unknown"

// Normalizer rewrites dialectal input toward canonical form using an
// immutable rule-table set.
type Normalizer struct {
	rules *rules.NormalizationRules
}

// New returns a [Normalizer] backed by the given table set. The tables must
// not be mutated afterwards.
func New(r *rules.NormalizationRules) *Normalizer {
	return &Normalizer{rules: r}
}

// Normalize rewrites text toward canonical form. dialectHint selects the
// dialect-specific rule group; pass "" when the dialect is unknown, in which
// case only the phonetic, compound, and domain stages run.
//
// Normalize never fails: on an internal panic it returns the input text
// unchanged with zero confidence and no transformations.
func (n *Normalizer) Normalize(text, dialectHint string) (result types.NormalizationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("normalization panic recovered", "panic", r)
			result = types.NormalizationResult{
				OriginalText:    text,
				NormalizedText:  text,
				DetectedDialect: DialectUnknown,
				Confidence:      0,
				Transformations: []types.Transformation{},
			}
		}
	}()

	dialect := dialectHint
	if dialect == "" {
		dialect = DialectUnknown
	}

	normalized := text
	transformations := []types.Transformation{}

	normalized = n.applyPhonetic(normalized, &transformations)
	normalized = n.applyCompounds(normalized, &transformations)

	if dr, ok := n.rules.Dialects[dialectHint]; ok {
		normalized = applyRewrites(normalized, dr.Phonological, types.KindPhonological, &transformations)
		normalized = applyRewrites(normalized, dr.Lexical, types.KindLexical, &transformations)
		normalized = applyRewrites(normalized, dr.Morphological, types.KindMorphological, &transformations)
	}

	normalized = n.applyMedical(normalized, &transformations)

	confidence := defaultConfidence
	if len(transformations) > 0 {
		var sum float64
		for _, t := range transformations {
			sum += t.Confidence
		}
		confidence = sum / float64(len(transformations))
	}

	return types.NormalizationResult{
		OriginalText:    text,
		NormalizedText:  normalized,
		DetectedDialect: dialect,
		Confidence:      confidence,
		Transformations: transformations,
	}
}

// NormalizeMedical applies only the domain normalization stage. Exposed so
// callers can canonicalize already-standard text, and because the stage is
// idempotent: applying it twice yields the same output as applying it once.
func (n *Normalizer) NormalizeMedical(text string) string {
	var discard []types.Transformation
	return n.applyMedical(text, &discard)
}

// applyPhonetic corrects known single-token mis-transcriptions word by word,
// preserving surrounding punctuation. When no token needed correction the
// input is returned untouched, whitespace included.
func (n *Normalizer) applyPhonetic(text string, transformations *[]types.Transformation) string {
	words := strings.Fields(text)
	corrected := false

	for i, word := range words {
		clean := strings.Map(dropPunct, word)
		repl, ok := n.rules.Phonetic[clean]
		if !ok || repl == clean {
			continue
		}

		*transformations = append(*transformations, types.Transformation{
			Original:   clean,
			Normalized: repl,
			Kind:       types.KindPhonological,
			Confidence: phoneticConfidence,
		})

		// Substitute inside the original token so punctuation survives.
		words[i] = strings.Replace(word, clean, repl, 1)
		corrected = true
	}

	if !corrected {
		return text
	}
	return strings.Join(words, " ")
}

// applyCompounds substitutes known multi-word phrases. Keys are expressed in
// post-phonetic spelling, so this pass must run after [applyPhonetic].
func (n *Normalizer) applyCompounds(text string, transformations *[]types.Transformation) string {
	for _, c := range n.rules.Compounds {
		if !strings.Contains(text, c.Match) {
			continue
		}
		text = strings.ReplaceAll(text, c.Match, c.Replace)
		*transformations = append(*transformations, types.Transformation{
			Original:   c.Match,
			Normalized: c.Replace,
			Kind:       types.KindPhonological,
			Confidence: compoundConfidence,
		})
	}
	return text
}

// applyMedical canonicalizes medical vocabulary variants regardless of
// dialect. Replacement targets are members of their own alternations, which
// is what makes the stage idempotent.
func (n *Normalizer) applyMedical(text string, transformations *[]types.Transformation) string {
	for _, group := range n.rules.Medical {
		text = applyRewrites(text, group.Rules, types.KindLexical, transformations)
	}
	return text
}

// applyRewrites fires every rule whose pattern matches anywhere in text,
// replacing all occurrences. One Transformation is recorded per rule firing,
// carrying the first match's text — even when the pattern matched more than
// once. Downstream consumers depend on this one-record-per-firing shape.
func applyRewrites(text string, rr []rules.RewriteRule, kind types.TransformationKind, transformations *[]types.Transformation) string {
	for _, rule := range rr {
		first := rule.Pattern.FindString(text)
		if first == "" {
			continue
		}
		replaced := rule.Pattern.ReplaceAllString(text, rule.Replacement)
		if replaced == text {
			continue
		}
		text = replaced
		*transformations = append(*transformations, types.Transformation{
			Original:   first,
			Normalized: rule.Replacement,
			Kind:       kind,
			Confidence: rule.Confidence,
		})
	}
	return text
}

// dropPunct removes sentence punctuation for token matching. Arabic
// punctuation marks are included alongside their Latin counterparts.
func dropPunct(r rune) rune {
	switch r {
	case '.', ',', '!', '?', ';', ':', '،', '؟', '؛':
		return -1
	}
	return r
}
