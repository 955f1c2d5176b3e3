package terminology

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/hakimlabs/tashih/pkg/types"
)

// maxSuggestions caps the number of terms returned by [Mapper.Suggestions].
const maxSuggestions = 10

// Suggestions returns standardized terms whose synonyms contain partial,
// for autocomplete-style lookup. Pass an empty category to search all
// categories. Results are sorted by rule confidence, with Jaro-Winkler
// similarity between partial and the matched synonym breaking ties, and
// capped at ten entries.
func (m *Mapper) Suggestions(partial string, category types.Category) []types.StandardizedTerm {
	partialLower := strings.ToLower(strings.TrimSpace(partial))

	type ranked struct {
		term       types.StandardizedTerm
		similarity float64
	}
	var candidates []ranked

	for _, rule := range m.table.Rules {
		if category != "" && rule.Category != category {
			continue
		}
		for _, synonym := range rule.Synonyms {
			synLower := strings.ToLower(synonym)
			if !strings.Contains(synLower, partialLower) {
				continue
			}
			e := types.MedicalEntity{
				Text:       synonym,
				Category:   rule.Category,
				Confidence: rule.Confidence,
				SNOMED:     rule.SNOMED,
				ICD11:      rule.ICD11,
			}
			candidates = append(candidates, ranked{
				term:       newTerm(e, rule),
				similarity: matchr.JaroWinkler(partialLower, synLower, false),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].term.Confidence != candidates[j].term.Confidence {
			return candidates[i].term.Confidence > candidates[j].term.Confidence
		}
		return candidates[i].similarity > candidates[j].similarity
	})

	n := len(candidates)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]types.StandardizedTerm, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.term)
	}
	return out
}
