package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/hakimlabs/tashih/pkg/types"
)

// tableFile is the YAML schema of a rule-table file.
type tableFile struct {
	Version       string            `yaml:"version"`
	Normalization normalizationFile `yaml:"normalization"`
	Mapping       mappingFile       `yaml:"mapping"`
}

type normalizationFile struct {
	Phonetic  map[string]string       `yaml:"phonetic"`
	Compounds []compoundEntry         `yaml:"compounds"`
	Dialects  map[string]dialectEntry `yaml:"dialects"`
	Medical   []medicalGroupEntry     `yaml:"medical"`
}

type compoundEntry struct {
	Match   string `yaml:"match"`
	Replace string `yaml:"replace"`
}

type dialectEntry struct {
	Phonological  []rewriteEntry `yaml:"phonological"`
	Lexical       []rewriteEntry `yaml:"lexical"`
	Morphological []rewriteEntry `yaml:"morphological"`
}

type rewriteEntry struct {
	Pattern    string  `yaml:"pattern"`
	Replace    string  `yaml:"replace"`
	Confidence float64 `yaml:"confidence"`
}

type medicalGroupEntry struct {
	Name  string         `yaml:"name"`
	Rules []rewriteEntry `yaml:"rules"`
}

type mappingFile struct {
	Rules   []mappingRuleEntry `yaml:"rules"`
	Context contextEntry       `yaml:"context"`
}

type mappingRuleEntry struct {
	Pattern    string         `yaml:"pattern"`
	Category   types.Category `yaml:"category"`
	SNOMED     codingEntry    `yaml:"snomed"`
	ICD11      codingEntry    `yaml:"icd11"`
	Confidence float64        `yaml:"confidence"`
	Synonyms   []string       `yaml:"synonyms"`
}

type codingEntry struct {
	Code    string `yaml:"code"`
	Display string `yaml:"display"`
}

type contextEntry struct {
	Temporal []string `yaml:"temporal"`
	Severity []string `yaml:"severity"`
}

// Load reads, validates, and compiles a rule-table YAML file from disk.
// Any integrity error (malformed pattern, missing coding entry, unknown
// category) is fatal: the file is rejected as a whole rather than loaded
// partially.
func Load(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rules: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("rules: parse %q: %w", path, err)
	}
	return t, nil
}

// LoadFromReader decodes, validates, and compiles rule tables from r.
// Useful in tests where tables are constructed from string literals.
func LoadFromReader(r io.Reader) (*Tables, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("rules: decode yaml: %w", err)
	}
	return compile(&tf)
}

// compile turns the raw file schema into the immutable compiled table set,
// collecting every integrity error it finds.
func compile(tf *tableFile) (*Tables, error) {
	var errs []error

	norm := &NormalizationRules{
		Version:  tf.Version,
		Phonetic: tf.Normalization.Phonetic,
		Dialects: make(map[string]DialectRules, len(tf.Normalization.Dialects)),
	}
	if norm.Phonetic == nil {
		norm.Phonetic = map[string]string{}
	}

	for i, c := range tf.Normalization.Compounds {
		if c.Match == "" {
			errs = append(errs, fmt.Errorf("normalization.compounds[%d].match is required", i))
			continue
		}
		norm.Compounds = append(norm.Compounds, CompoundRule{Match: c.Match, Replace: c.Replace})
	}

	for name, d := range tf.Normalization.Dialects {
		var dr DialectRules
		dr.Phonological = compileRewrites(fmt.Sprintf("normalization.dialects.%s.phonological", name), d.Phonological, &errs)
		dr.Lexical = compileRewrites(fmt.Sprintf("normalization.dialects.%s.lexical", name), d.Lexical, &errs)
		dr.Morphological = compileRewrites(fmt.Sprintf("normalization.dialects.%s.morphological", name), d.Morphological, &errs)
		norm.Dialects[name] = dr
	}

	for i, g := range tf.Normalization.Medical {
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("normalization.medical[%d].name is required", i))
		}
		norm.Medical = append(norm.Medical, MedicalGroup{
			Name:  g.Name,
			Rules: compileRewrites(fmt.Sprintf("normalization.medical[%d]", i), g.Rules, &errs),
		})
	}

	mt := &MappingTable{Version: tf.Version}
	for i, e := range tf.Mapping.Rules {
		prefix := fmt.Sprintf("mapping.rules[%d]", i)
		re, err := compilePattern(e.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.pattern: %w", prefix, err))
			continue
		}
		if !e.Category.IsValid() {
			errs = append(errs, fmt.Errorf("%s.category %q is not a recognised category (valid: %v)", prefix, e.Category, types.Categories))
		}
		if e.SNOMED.Code == "" {
			errs = append(errs, fmt.Errorf("%s.snomed.code is required", prefix))
		}
		if e.ICD11.Code == "" {
			errs = append(errs, fmt.Errorf("%s.icd11.code is required", prefix))
		}
		if len(e.Synonyms) == 0 {
			errs = append(errs, fmt.Errorf("%s.synonyms must list at least the English gloss", prefix))
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			errs = append(errs, fmt.Errorf("%s.confidence %.2f is out of range [0, 1]", prefix, e.Confidence))
		}
		mt.Rules = append(mt.Rules, MappingRule{
			Pattern:  re,
			Category: e.Category,
			SNOMED: types.Coding{
				Code:    e.SNOMED.Code,
				Display: e.SNOMED.Display,
				System:  types.SystemSNOMEDCT,
			},
			ICD11: types.Coding{
				Code:    e.ICD11.Code,
				Display: e.ICD11.Display,
				System:  types.SystemICD11,
			},
			Confidence: e.Confidence,
			Synonyms:   e.Synonyms,
		})
	}

	mt.Temporal = compilePatterns("mapping.context.temporal", tf.Mapping.Context.Temporal, &errs)
	mt.Severity = compilePatterns("mapping.context.severity", tf.Mapping.Context.Severity, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Longest primary synonym first, so compound concepts win over the
	// generic patterns they contain. Stable sort keeps authored order for
	// equal lengths.
	sort.SliceStable(mt.Rules, func(i, j int) bool {
		return utf8.RuneCountInString(mt.Rules[i].Primary()) > utf8.RuneCountInString(mt.Rules[j].Primary())
	})

	return &Tables{Normalization: norm, Mapping: mt}, nil
}

func compileRewrites(prefix string, entries []rewriteEntry, errs *[]error) []RewriteRule {
	out := make([]RewriteRule, 0, len(entries))
	for i, e := range entries {
		re, err := compilePattern(e.Pattern)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s[%d].pattern: %w", prefix, i, err))
			continue
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			*errs = append(*errs, fmt.Errorf("%s[%d].confidence %.2f is out of range [0, 1]", prefix, i, e.Confidence))
		}
		out = append(out, RewriteRule{Pattern: re, Replacement: e.Replace, Confidence: e.Confidence})
	}
	return out
}

func compilePatterns(prefix string, patterns []string, errs *[]error) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := compilePattern(p)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s[%d]: %w", prefix, i, err))
			continue
		}
		out = append(out, re)
	}
	return out
}

// compilePattern compiles a rule pattern case-insensitively. Rule authors
// write patterns without the flag; Arabic text is unaffected by it.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	return regexp.Compile("(?i)" + pattern)
}
