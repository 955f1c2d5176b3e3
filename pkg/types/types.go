// Package types defines the shared data model used across all Tashih packages.
//
// These types form the lingua franca between the dialect normalizer, the
// terminology mapper, and the transcription pipeline. They are intentionally
// plain — every field is JSON-serializable, so a result can cross the
// presentation boundary as a nested map without leaking Go-specific types.
package types

// Category classifies a recognized clinical concept. The set is closed; the
// summary-grouping step in the pipeline handles every member exhaustively.
type Category string

const (
	CategorySymptom     Category = "symptom"
	CategoryDisease     Category = "disease"
	CategoryMedication  Category = "medication"
	CategoryProcedure   Category = "procedure"
	CategoryAnatomy     Category = "anatomy"
	CategoryObservation Category = "observation"
	CategoryDisorder    Category = "disorder"
	CategoryFinding     Category = "finding"
)

// IsValid reports whether c is a recognised clinical category.
func (c Category) IsValid() bool {
	switch c {
	case CategorySymptom, CategoryDisease, CategoryMedication, CategoryProcedure,
		CategoryAnatomy, CategoryObservation, CategoryDisorder, CategoryFinding:
		return true
	}
	return false
}

// Categories lists all valid clinical categories in declaration order.
var Categories = []Category{
	CategorySymptom, CategoryDisease, CategoryMedication, CategoryProcedure,
	CategoryAnatomy, CategoryObservation, CategoryDisorder, CategoryFinding,
}

// TransformationKind classifies a single normalization rewrite.
type TransformationKind string

const (
	KindPhonological  TransformationKind = "phonological"
	KindLexical       TransformationKind = "lexical"
	KindMorphological TransformationKind = "morphological"
	KindSyntactic     TransformationKind = "syntactic"
)

// IsValid reports whether k is a recognised transformation kind.
func (k TransformationKind) IsValid() bool {
	switch k {
	case KindPhonological, KindLexical, KindMorphological, KindSyntactic:
		return true
	}
	return false
}

// Transformation is one atomic rewrite applied during dialect normalization.
// Instances are created by the normalizer and never mutated afterwards.
type Transformation struct {
	// Original is the text that was matched and replaced.
	Original string `json:"original"`

	// Normalized is the replacement text.
	Normalized string `json:"normalized"`

	// Kind classifies the rewrite.
	Kind TransformationKind `json:"kind"`

	// Confidence is the rule's confidence in this rewrite (0.0–1.0).
	Confidence float64 `json:"confidence"`
}

// NormalizationResult is the output of a single normalization call.
// Read-only after production.
type NormalizationResult struct {
	OriginalText   string `json:"original_text"`
	NormalizedText string `json:"normalized_text"`

	// DetectedDialect is the dialect the rules were applied for, or
	// "unknown" when no dialect hint was available.
	DetectedDialect string `json:"detected_dialect"`

	// Confidence is the arithmetic mean over all transformation confidences,
	// or 0.8 when no transformation fired (text assumed already canonical).
	Confidence float64 `json:"confidence"`

	// Transformations lists every rewrite in application order.
	Transformations []Transformation `json:"transformations"`
}

// Coding is a single entry in a standard clinical coding system.
type Coding struct {
	// Code is the concept identifier within the system (e.g., "25064002").
	Code string `json:"code"`

	// Display is the human-readable name for the code.
	Display string `json:"display"`

	// System is the canonical URI of the coding system.
	System string `json:"system"`
}

// Canonical coding-system URIs.
const (
	SystemSNOMEDCT = "http://snomed.info/sct"
	SystemICD11    = "https://icd.who.int/browse11"
)

// MedicalEntity is a concrete match instance inside analyzed text, identified
// by a half-open rune-offset span [Start, End). Entities are kept on the
// mapping result even when later discarded during conflict resolution, so
// the full match trail remains auditable.
type MedicalEntity struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`

	// Start and End are rune offsets into the analyzed string.
	Start int `json:"start"`
	End   int `json:"end"`

	Confidence float64 `json:"confidence"`

	// SNOMED and ICD11 carry the matching rule's coding entries.
	SNOMED Coding `json:"snomed_ct"`
	ICD11  Coding `json:"icd11"`
}

// StandardizedTerm is the externally visible, deduplicated representation of
// a recognized clinical concept.
type StandardizedTerm struct {
	// OriginalText is the text as matched in the analyzed string.
	OriginalText string `json:"original_text"`

	// SourceLanguageText preserves the original-script form when it differs
	// from the English gloss (e.g., the Arabic span that was matched).
	SourceLanguageText string `json:"source_language_text,omitempty"`

	// EnglishText is the rule's canonical English gloss.
	EnglishText string `json:"english_text"`

	Category Category `json:"category"`

	SNOMED Coding `json:"snomed_ct"`
	ICD11  Coding `json:"icd11"`

	Confidence float64 `json:"confidence"`

	// Synonyms lists the rule's canonical display forms; the first entry is
	// the default English gloss.
	Synonyms []string `json:"synonyms"`
}

// MappingResult is the output of a single terminology-mapping call.
type MappingResult struct {
	OriginalText string `json:"original_text"`

	// Entities lists every accepted match, including ones later discarded
	// during conflict resolution.
	Entities []MedicalEntity `json:"entities"`

	// MappedTerms is the deduplicated term list, sorted by confidence
	// descending.
	MappedTerms []StandardizedTerm `json:"mapped_terms"`

	// Confidence is the mean over MappedTerms, or 0 when none were retained.
	Confidence float64 `json:"confidence"`

	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// TranscriptInput is the contract consumed from the audio transcription
// provider. Language may be empty when the provider could not detect one;
// the pipeline treats that as "unknown", not as an error.
type TranscriptInput struct {
	Text       string `json:"text"`
	Language   string `json:"language,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// TranscriptionResult is the pipeline's final output, exposed to the
// presentation layer.
type TranscriptionResult struct {
	Success bool `json:"success"`

	OriginalText            string `json:"original_text"`
	DetectedLanguage        string `json:"detected_language,omitempty"`
	TranscriptionDurationMs int64  `json:"transcription_duration_ms"`

	NormalizedText    string             `json:"normalized_text"`
	MedicalTerms      []StandardizedTerm `json:"medical_terms"`
	MedicalSummary    string             `json:"medical_summary"`
	MedicalCategories []Category         `json:"medical_categories"`

	// Normalization is present only when the normalization stage ran.
	Normalization *NormalizationResult `json:"normalization,omitempty"`

	// Mapping is present on every successful result, even when no terms
	// were detected.
	Mapping *MappingResult `json:"mapping,omitempty"`

	TotalProcessingTimeMs int64 `json:"total_processing_time_ms"`

	// Error is set only when Success is false.
	Error string `json:"error,omitempty"`
}
