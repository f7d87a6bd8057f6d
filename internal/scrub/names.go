package scrub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-privacy-relay/internal/textmatch"
)

// CompanyTag replaces the company name and its aliases.
const CompanyTag = "[COMPANY]"

// minTokenLength is the shortest name fragment registered on its own.
// Shorter fragments ("De", "Li") would shred ordinary words.
const minTokenLength = 3

// KnownNames are the identity strings the caller already knows about.
type KnownNames struct {
	CompanyName    string   `json:"companyName"`
	CompanyAliases []string `json:"companyAliases,omitempty"`
	EmployeeNames  []string `json:"employeeNames,omitempty"`
	ProjectNames   []string `json:"projectNames,omitempty"`
}

// IsEmpty reports whether there is nothing to scrub.
func (k KnownNames) IsEmpty() bool {
	return strings.TrimSpace(k.CompanyName) == "" && len(k.CompanyAliases) == 0 &&
		len(k.EmployeeNames) == 0 && len(k.ProjectNames) == 0
}

// NameScrubber replaces known names in one case-sensitive pass, longest
// match first, so "Acme Corporation" wins over "Acme Corp" and a full name
// wins over its own first or last name.
type NameScrubber struct {
	r *textmatch.Replacer
}

// NewNameScrubber registers, in priority order: the company name and
// aliases, project full names ([PROJECT_n] in first-seen order), employee
// full names ([PERSON_n] in first-seen order), then every employee name token
// of at least three runes under the same [PERSON_n] tag. Tokens only match as
// standalone words, so "Ann" leaves "Annual" alone. Projects are not split
// into tokens. Strings without a letter are never registered, which keeps
// amounts and dates intact.
func NewNameScrubber(k KnownNames) *NameScrubber {
	var pairs []textmatch.Pair
	add := func(find, tag string, wholeWord bool) {
		if hasLetter(find) {
			pairs = append(pairs, textmatch.Pair{Find: find, Replace: tag, WholeWord: wholeWord})
		}
	}

	add(strings.TrimSpace(k.CompanyName), CompanyTag, false)
	for _, alias := range k.CompanyAliases {
		add(strings.TrimSpace(alias), CompanyTag, false)
	}

	for i, name := range distinct(k.ProjectNames) {
		add(name, fmt.Sprintf("[PROJECT_%d]", i+1), false)
	}

	employees := distinct(k.EmployeeNames)
	tags := make([]string, len(employees))
	for i, name := range employees {
		tags[i] = fmt.Sprintf("[PERSON_%d]", i+1)
		add(name, tags[i], false)
	}
	for i, name := range employees {
		for _, tok := range strings.Fields(name) {
			if utf8.RuneCountInString(tok) >= minTokenLength {
				add(tok, tags[i], true)
			}
		}
	}

	return &NameScrubber{r: textmatch.New(pairs)}
}

// Scrub returns text with known names replaced and the number of replacements.
func (s *NameScrubber) Scrub(text string) (string, int) {
	return s.r.Replace(text)
}

// ScrubKnownNames redacts the given names from text.
// With an empty configuration text is returned unchanged with count 0.
func ScrubKnownNames(text string, k KnownNames) (string, int) {
	if k.IsEmpty() {
		return text, 0
	}
	return NewNameScrubber(k).Scrub(text)
}

// distinct trims names and drops empties and repeats, keeping first-seen order.
func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
