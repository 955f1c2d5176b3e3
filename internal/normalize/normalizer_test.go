package normalize_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/hakimlabs/tashih/internal/normalize"
	"github.com/hakimlabs/tashih/internal/rules"
	"github.com/hakimlabs/tashih/pkg/types"
)

func newNormalizer(t *testing.T) *normalize.Normalizer {
	t.Helper()
	return normalize.New(rules.MustDefault().Normalization)
}

func TestNormalize_PhoneticCorrection(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	res := n.Normalize("عندي سداع", "")

	if res.NormalizedText != "عندي صداع" {
		t.Errorf("NormalizedText = %q, want %q", res.NormalizedText, "عندي صداع")
	}
	if len(res.Transformations) != 1 {
		t.Fatalf("len(Transformations) = %d, want 1", len(res.Transformations))
	}
	tr := res.Transformations[0]
	if tr.Original != "سداع" || tr.Normalized != "صداع" {
		t.Errorf("transformation = %q→%q, want %q→%q", tr.Original, tr.Normalized, "سداع", "صداع")
	}
	if tr.Kind != types.KindPhonological {
		t.Errorf("Kind = %q, want %q", tr.Kind, types.KindPhonological)
	}
	if math.Abs(tr.Confidence-0.95) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.95", tr.Confidence)
	}
}

func TestNormalize_PhoneticPreservesPunctuation(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	res := n.Normalize("عندي سداع، وتعب", "")

	if !strings.Contains(res.NormalizedText, "صداع،") {
		t.Errorf("NormalizedText = %q, want punctuation kept after correction", res.NormalizedText)
	}
}

func TestNormalize_CompoundAfterPhonetic(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	res := n.Normalize("عندي وغا باطن", "")

	// وغا→وجع (phonetic), وجع باطن→وجع في البطن (compound),
	// وجع→ألم (medical).
	if res.NormalizedText != "عندي ألم في البطن" {
		t.Errorf("NormalizedText = %q, want %q", res.NormalizedText, "عندي ألم في البطن")
	}
	if len(res.Transformations) != 3 {
		t.Fatalf("len(Transformations) = %d, want 3", len(res.Transformations))
	}

	wantKinds := []types.TransformationKind{
		types.KindPhonological, types.KindPhonological, types.KindLexical,
	}
	for i, k := range wantKinds {
		if res.Transformations[i].Kind != k {
			t.Errorf("Transformations[%d].Kind = %q, want %q", i, res.Transformations[i].Kind, k)
		}
	}

	wantConf := (0.95 + 0.98 + 0.95) / 3
	if math.Abs(res.Confidence-wantConf) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", res.Confidence, wantConf)
	}
}

func TestNormalize_DialectRules(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	res := n.Normalize("عايز دوا", "egyptian")

	if res.NormalizedText != "أريد دوا" {
		t.Errorf("NormalizedText = %q, want %q", res.NormalizedText, "أريد دوا")
	}
	if res.DetectedDialect != "egyptian" {
		t.Errorf("DetectedDialect = %q, want %q", res.DetectedDialect, "egyptian")
	}
}

func TestNormalize_UnknownDialectSkipsDialectRules(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	res := n.Normalize("عايز دوا", "")

	if res.NormalizedText != "عايز دوا" {
		t.Errorf("NormalizedText = %q, want input unchanged", res.NormalizedText)
	}
	if res.DetectedDialect != normalize.DialectUnknown {
		t.Errorf("DetectedDialect = %q, want %q", res.DetectedDialect, normalize.DialectUnknown)
	}
	if len(res.Transformations) != 0 {
		t.Errorf("len(Transformations) = %d, want 0", len(res.Transformations))
	}
}

func TestNormalize_DefaultConfidenceWhenUntouched(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)

	for _, text := range []string{"", "hello there", "صداع"} {
		res := n.Normalize(text, "")
		if res.NormalizedText != text {
			t.Errorf("Normalize(%q): NormalizedText = %q, want input unchanged", text, res.NormalizedText)
		}
		if math.Abs(res.Confidence-0.8) > 1e-9 {
			t.Errorf("Normalize(%q): Confidence = %v, want 0.8", text, res.Confidence)
		}
	}
}

func TestNormalize_OneTransformationPerRuleFiring(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)

	// وجع appears twice; the medical rule fires once and records the first
	// match only, while still replacing both occurrences.
	res := n.Normalize("وجع هنا و وجع هناك", "")

	if strings.Contains(res.NormalizedText, "وجع") {
		t.Errorf("NormalizedText = %q, want every occurrence replaced", res.NormalizedText)
	}
	count := 0
	for _, tr := range res.Transformations {
		if tr.Normalized == "ألم" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("recorded %d transformations for one rule firing, want 1", count)
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	t.Parallel()

	// A normalizer built over nil tables fails internally; the contract is a
	// degenerate result, not a panic.
	n := normalize.New(nil)
	res := n.Normalize("عندي صداع", "")

	if res.NormalizedText != "عندي صداع" {
		t.Errorf("NormalizedText = %q, want input unchanged", res.NormalizedText)
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
	if len(res.Transformations) != 0 {
		t.Errorf("len(Transformations) = %d, want 0", len(res.Transformations))
	}
}

func TestNormalize_TotalOnHostileInputs(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)

	inputs := []string{
		"!!!؟؟؟...،،،",
		"mixed نص عربي and english text",
		strings.Repeat("عندي وغا باطن وكحة ", 600),
	}
	for _, text := range inputs {
		res := n.Normalize(text, "egyptian")
		if res.OriginalText != text {
			t.Errorf("OriginalText mismatch for %d-byte input", len(text))
		}
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("Confidence %v outside [0, 1]", res.Confidence)
		}
		for _, tr := range res.Transformations {
			if tr.Confidence < 0 || tr.Confidence > 1 {
				t.Errorf("transformation %q confidence %v outside [0, 1]", tr.Original, tr.Confidence)
			}
		}
	}
}

func TestNormalizeMedical_Idempotent(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)

	for _, text := range []string{
		"عندي وجع وكحة كتير",
		"ألم شديد في الظهر",
		"plain english text",
	} {
		once := n.NormalizeMedical(text)
		twice := n.NormalizeMedical(once)
		if once != twice {
			t.Errorf("NormalizeMedical(%q) not idempotent: %q != %q", text, once, twice)
		}
	}
}

func TestNormalizeMany_PreservesOrder(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	texts := []string{"عندي سداع", "hello", "عايز دوا", "", "كحة"}

	results, err := n.NormalizeMany(context.Background(), texts, "")
	if err != nil {
		t.Fatalf("NormalizeMany: %v", err)
	}
	if len(results) != len(texts) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(texts))
	}
	for i, r := range results {
		if r.OriginalText != texts[i] {
			t.Errorf("results[%d].OriginalText = %q, want %q", i, r.OriginalText, texts[i])
		}
	}
}

func TestNormalizeMany_CancelledContext(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := n.NormalizeMany(ctx, []string{"a", "b"}, ""); err == nil {
		t.Fatal("NormalizeMany: expected error for cancelled context")
	}
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	results, err := n.NormalizeMany(context.Background(), []string{"عندي سداع", "hello"}, "")
	if err != nil {
		t.Fatalf("NormalizeMany: %v", err)
	}

	stats := normalize.Statistics(results)
	if stats.TotalTexts != 2 {
		t.Errorf("TotalTexts = %d, want 2", stats.TotalTexts)
	}
	if stats.DialectDistribution[normalize.DialectUnknown] != 2 {
		t.Errorf("DialectDistribution[unknown] = %d, want 2", stats.DialectDistribution[normalize.DialectUnknown])
	}
	if stats.AvgTransformations <= 0 {
		t.Errorf("AvgTransformations = %v, want > 0", stats.AvgTransformations)
	}
}

func TestExtractFeatures(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)

	tests := []struct {
		name  string
		text  string
		group string
		tag   string
	}{
		{"want verb", "عايز أروح للدكتور", "lexical", "dialectal_want_verb"},
		{"mish negation", "أنا مش عارف", "syntactic", "negation_mish"},
		{"circumfix negation", "ما شفتش الدكتور", "syntactic", "circumfix_negation"},
		{"ba prefix", "بشرب الدوا", "morphological", "present_marker_ba"},
		{"3am prefix", "عم بحكي", "morphological", "present_continuous_3am"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := n.ExtractFeatures(tc.text)

			var got []string
			switch tc.group {
			case "phonological":
				got = f.Phonological
			case "lexical":
				got = f.Lexical
			case "morphological":
				got = f.Morphological
			case "syntactic":
				got = f.Syntactic
			}

			found := false
			for _, tag := range got {
				if tag == tc.tag {
					found = true
				}
			}
			if !found {
				t.Errorf("ExtractFeatures(%q).%s = %v, want tag %q", tc.text, tc.group, got, tc.tag)
			}
		})
	}
}

func TestExtractFeatures_DoesNotMutate(t *testing.T) {
	t.Parallel()

	n := newNormalizer(t)
	text := "عايز أروح"
	_ = n.ExtractFeatures(text)
	res := n.Normalize(text, "")
	if res.OriginalText != text {
		t.Errorf("OriginalText = %q, want %q", res.OriginalText, text)
	}
}
