package rules_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hakimlabs/tashih/internal/rules"
)

func TestDefault_LoadsEmbeddedTables(t *testing.T) {
	t.Parallel()

	tables, err := rules.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if tables.Normalization.Version == "" {
		t.Error("normalization version is empty")
	}
	if len(tables.Normalization.Phonetic) == 0 {
		t.Error("phonetic table is empty")
	}
	if len(tables.Normalization.Compounds) == 0 {
		t.Error("compound table is empty")
	}
	for _, dialect := range []string{"egyptian", "levantine", "gulf", "maghrebi"} {
		if !tables.Normalization.HasDialect(dialect) {
			t.Errorf("dialect %q missing from tables", dialect)
		}
	}
	if len(tables.Mapping.Rules) == 0 {
		t.Error("mapping table is empty")
	}
	if len(tables.Mapping.Temporal) == 0 || len(tables.Mapping.Severity) == 0 {
		t.Error("context marker patterns are empty")
	}
}

func TestDefault_RulesSortedBySpecificity(t *testing.T) {
	t.Parallel()

	tables := rules.MustDefault()

	prev := -1
	for i, r := range tables.Mapping.Rules {
		n := utf8.RuneCountInString(r.Primary())
		if prev >= 0 && n > prev {
			t.Fatalf("rules[%d] primary %q (%d runes) is longer than its predecessor (%d runes)", i, r.Primary(), n, prev)
		}
		prev = n
	}
}

const validTables = `
version: "test"
normalization:
  phonetic:
    "واجع": "وجع"
  compounds:
    - { match: "وجع باطن", replace: "وجع في البطن" }
  dialects:
    egyptian:
      lexical:
        - { pattern: "عايز", replace: "أريد", confidence: 0.95 }
  medical:
    - name: symptoms
      rules:
        - { pattern: "وجع|ألم", replace: "ألم", confidence: 0.95 }
mapping:
  context:
    temporal: ['\b(yesterday)\b']
    severity: ['\b(severe)\b']
  rules:
    - pattern: '\b(headache)\b'
      category: symptom
      snomed: { code: "25064002", display: "Headache" }
      icd11: { code: "MD10.0", display: "Headache" }
      confidence: 0.95
      synonyms: ["headache"]
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	tables, err := rules.LoadFromReader(strings.NewReader(validTables))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if got := tables.Normalization.Phonetic["واجع"]; got != "وجع" {
		t.Errorf("phonetic entry = %q, want %q", got, "وجع")
	}
	if len(tables.Mapping.Rules) != 1 {
		t.Fatalf("len(Mapping.Rules) = %d, want 1", len(tables.Mapping.Rules))
	}
	r := tables.Mapping.Rules[0]
	if r.Primary() != "headache" {
		t.Errorf("Primary() = %q, want %q", r.Primary(), "headache")
	}
	if !r.Pattern.MatchString("a HEADACHE today") {
		t.Error("pattern should match case-insensitively")
	}
}

func TestLoadFromReader_IntegrityErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "malformed pattern",
			yaml: `
mapping:
  rules:
    - pattern: '(['
      category: symptom
      snomed: { code: "x" }
      icd11: { code: "y" }
      confidence: 0.9
      synonyms: ["x"]
`,
			wantErr: "mapping.rules[0].pattern",
		},
		{
			name: "missing snomed code",
			yaml: `
mapping:
  rules:
    - pattern: 'x'
      category: symptom
      icd11: { code: "y" }
      confidence: 0.9
      synonyms: ["x"]
`,
			wantErr: "snomed.code is required",
		},
		{
			name: "unknown category",
			yaml: `
mapping:
  rules:
    - pattern: 'x'
      category: vibe
      snomed: { code: "x" }
      icd11: { code: "y" }
      confidence: 0.9
      synonyms: ["x"]
`,
			wantErr: "not a recognised category (valid: [symptom",
		},
		{
			name: "confidence out of range",
			yaml: `
mapping:
  rules:
    - pattern: 'x'
      category: symptom
      snomed: { code: "x" }
      icd11: { code: "y" }
      confidence: 1.5
      synonyms: ["x"]
`,
			wantErr: "out of range",
		},
		{
			name: "missing synonyms",
			yaml: `
mapping:
  rules:
    - pattern: 'x'
      category: symptom
      snomed: { code: "x" }
      icd11: { code: "y" }
      confidence: 0.9
`,
			wantErr: "synonyms must list",
		},
		{
			name:    "unknown top-level field",
			yaml:    "bogus: true",
			wantErr: "decode yaml",
		},
		{
			name: "malformed dialect rewrite",
			yaml: `
normalization:
  dialects:
    egyptian:
      lexical:
        - { pattern: '*bad', replace: "x", confidence: 0.9 }
`,
			wantErr: "normalization.dialects.egyptian.lexical[0].pattern",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := rules.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("LoadFromReader: expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := rules.Load("does-not-exist.yaml"); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}
