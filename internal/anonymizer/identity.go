package anonymizer

import (
	"sort"
	"strings"

	"ai-privacy-relay/internal/textmatch"
)

// CompanyPseudonym replaces the company name everywhere.
const CompanyPseudonym = "The Company"

// IdentityMap links every real identity of one anonymize call to its
// pseudonym (real → pseudonym). It is built once per call and must be treated
// as read-only afterwards. The caller owns it; nothing here persists it.
type IdentityMap struct {
	Employees map[string]string `json:"employees"`
	Projects  map[string]string `json:"projects"`
	Company   map[string]string `json:"company"`
}

// NewIdentityMap returns an empty map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		Employees: map[string]string{},
		Projects:  map[string]string{},
		Company:   map[string]string{},
	}
}

// Len returns the total number of mapped identities.
func (m *IdentityMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Employees) + len(m.Projects) + len(m.Company)
}

// forwardPairs lists real → pseudonym for free-text rewriting. Company names
// come first, then employees, then projects, so if one string is registered
// in two groups the earlier group wins.
func (m *IdentityMap) forwardPairs() []textmatch.Pair {
	var pairs []textmatch.Pair
	for _, group := range []map[string]string{m.Company, m.Employees, m.Projects} {
		for _, real := range sortedKeys(group) {
			pairs = append(pairs, textmatch.Pair{Find: real, Replace: group[real]})
		}
	}
	return pairs
}

// reversePairs lists pseudonym → real across all three groups.
func (m *IdentityMap) reversePairs() []textmatch.Pair {
	var pairs []textmatch.Pair
	for _, group := range []map[string]string{m.Company, m.Employees, m.Projects} {
		for _, real := range sortedKeys(group) {
			pairs = append(pairs, textmatch.Pair{Find: group[real], Replace: real})
		}
	}
	return pairs
}

// Instruction returns a note for the outgoing prompt asking the external
// service to keep pseudonyms verbatim. Empty when nothing was pseudonymised.
func (m *IdentityMap) Instruction() string {
	if m.Len() == 0 {
		return ""
	}
	var kinds []string
	if len(m.Employees) > 0 {
		kinds = append(kinds, `people as "Employee <letters>"`)
	}
	if len(m.Projects) > 0 {
		kinds = append(kinds, `projects as "Project <name>"`)
	}
	if len(m.Company) > 0 {
		kinds = append(kinds, `the organisation as "`+CompanyPseudonym+`"`)
	}
	return "PRIVACY LABELS: identities in this data are pseudonymised. Refer to " +
		strings.Join(kinds, ", ") +
		", exactly as written in the data. Never guess or invent real names."
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
