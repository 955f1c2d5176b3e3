package normalize

import (
	"regexp"
	"strings"
)

// DialectFeatures carries the dialect marker tags found in a text, grouped
// by linguistic level. It is the input contract for an external dialect
// classifier; extraction never modifies the text.
type DialectFeatures struct {
	Phonological  []string `json:"phonological"`
	Lexical       []string `json:"lexical"`
	Morphological []string `json:"morphological"`
	Syntactic     []string `json:"syntactic"`
}

var (
	negationMish      = regexp.MustCompile(`\s+مش\s+`)
	circumfixNegation = regexp.MustCompile(`ما\s+\p{Arabic}+ش`)
)

// ExtractFeatures scans text for dialect markers and returns the tags found.
// This is a pure query, independent of the normalization write path.
func (n *Normalizer) ExtractFeatures(text string) DialectFeatures {
	f := DialectFeatures{
		Phonological:  []string{},
		Lexical:       []string{},
		Morphological: []string{},
		Syntactic:     []string{},
	}

	// Phonological markers: presence of letters whose realization varies
	// across dialects.
	for _, m := range []struct{ letter, tag string }{
		{"ج", "has_jeem"},
		{"ق", "has_qaf"},
		{"ث", "has_thaa"},
		{"ذ", "has_dhaal"},
	} {
		if strings.Contains(text, m.letter) {
			f.Phonological = append(f.Phonological, m.tag)
		}
	}

	// Lexical markers: dialect-specific function words.
	if containsAny(text, "عايز", "بدي", "أبغى", "بغيت") {
		f.Lexical = append(f.Lexical, "dialectal_want_verb")
	}
	if containsAny(text, "كده", "هيك", "جذي", "هكا") {
		f.Lexical = append(f.Lexical, "dialectal_demonstrative")
	}

	// Morphological markers: affixes characteristic of specific dialects.
	if strings.Contains(text, "ـش") || strings.HasSuffix(text, "ش") {
		f.Morphological = append(f.Morphological, "dialectal_negation")
	}
	if strings.HasPrefix(text, "ب") {
		f.Morphological = append(f.Morphological, "present_marker_ba")
	}
	if strings.HasPrefix(text, "عم") {
		f.Morphological = append(f.Morphological, "present_continuous_3am")
	}

	// Syntactic markers: negation constructions.
	if negationMish.MatchString(text) {
		f.Syntactic = append(f.Syntactic, "negation_mish")
	}
	if circumfixNegation.MatchString(text) {
		f.Syntactic = append(f.Syntactic, "circumfix_negation")
	}

	return f
}

func containsAny(text string, substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
