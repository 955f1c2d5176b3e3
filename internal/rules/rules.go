// Package rules owns the static rule tables that drive dialect normalization
// and terminology mapping. Tables are authored as versioned YAML data files,
// loaded once at startup, validated fail-fast, and immutable for the process
// lifetime. A default embedded table set ships with the binary; deployments
// may override it with an external file.
//
// Everything in this package is read-only after [Load] (or [Default])
// returns, so a single table set can back any number of concurrent requests
// without locking. Hot reload, if ever needed, must swap a whole *Tables
// reference — the loaded structures are never mutated in place.
package rules

import (
	"regexp"

	"github.com/hakimlabs/tashih/pkg/types"
)

// RewriteRule is a single compiled normalization rewrite: replace every
// occurrence of Pattern with Replacement, reported with Confidence.
type RewriteRule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Confidence  float64
}

// CompoundRule corrects a multi-word phrase by exact substring replacement.
// Phrase keys are expressed in post-phonetic-correction spelling, since the
// compound pass runs after the token pass.
type CompoundRule struct {
	Match   string
	Replace string
}

// DialectRules groups the three ordered rule sets applied for one dialect.
// Application order is fixed: phonological, then lexical, then morphological.
type DialectRules struct {
	Phonological  []RewriteRule
	Lexical       []RewriteRule
	Morphological []RewriteRule
}

// MedicalGroup is a named, ordered set of domain normalization rewrites
// (symptom synonyms, body-part synonyms, intensity adverbs).
type MedicalGroup struct {
	Name  string
	Rules []RewriteRule
}

// NormalizationRules is the full compiled table set for the dialect
// normalizer.
type NormalizationRules struct {
	// Version identifies the authored table revision.
	Version string

	// Phonetic maps known single-token mis-transcriptions to their canonical
	// spelling.
	Phonetic map[string]string

	// Compounds lists multi-word phrase corrections in application order.
	Compounds []CompoundRule

	// Dialects maps a dialect identifier (e.g., "egyptian") to its rule
	// groups.
	Dialects map[string]DialectRules

	// Medical lists the domain normalization groups, applied in order
	// regardless of dialect.
	Medical []MedicalGroup
}

// HasDialect reports whether rules exist for the given dialect identifier.
func (n *NormalizationRules) HasDialect(dialect string) bool {
	_, ok := n.Dialects[dialect]
	return ok
}

// MappingRule is one compiled clinical-concept pattern. The first synonym is
// the canonical English gloss and also determines rule priority: longer
// primary synonyms are matched before shorter ones.
type MappingRule struct {
	Pattern    *regexp.Regexp
	Category   types.Category
	SNOMED     types.Coding
	ICD11      types.Coding
	Confidence float64
	Synonyms   []string
}

// Primary returns the rule's canonical English gloss.
func (r MappingRule) Primary() string {
	if len(r.Synonyms) == 0 {
		return ""
	}
	return r.Synonyms[0]
}

// MappingTable is the full compiled table set for the terminology mapper.
type MappingTable struct {
	// Version identifies the authored table revision.
	Version string

	// Rules holds every mapping rule, pre-sorted by descending rune length
	// of the primary synonym so that specific compound concepts are
	// attempted before generic single-word ones.
	Rules []MappingRule

	// Temporal and Severity are the context marker patterns used by the
	// mapper's confidence enhancement pass.
	Temporal []*regexp.Regexp
	Severity []*regexp.Regexp
}

// Tables bundles both compiled table sets. This is the single immutable
// "context object" handed to the normalizer and the mapper.
type Tables struct {
	Normalization *NormalizationRules
	Mapping       *MappingTable
}
