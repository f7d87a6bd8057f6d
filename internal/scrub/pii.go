// Package scrub redacts sensitive strings from contract text before it is
// sent for extraction.
//
// Two independent scrubbers are provided:
//   - PII: structured patterns (national ids, bank accounts, company
//     registration numbers, emails, postal addresses) become numbered tags
//     such as [EMAIL_1].
//   - Known names: the caller's company, employee and project names become
//     [COMPANY], [PERSON_n] and [PROJECT_n].
//
// Every call keeps its own tag registry; nothing is shared between calls.
package scrub

import (
	"fmt"
	"regexp"
	"strings"
)

// Category classifies a detected PII value. The value is the tag prefix.
type Category string

// Supported categories, in detection priority order.
const (
	CategoryNationalID    Category = "NATIONAL_ID"
	CategoryBankAccount   Category = "BANK_ACCOUNT"
	CategoryCompanyReg    Category = "COMPANY_REG"
	CategoryEmail         Category = "EMAIL"
	CategoryPostalAddress Category = "POSTAL_ADDRESS"
)

// pattern pairs a compiled regex with its category. When group > 0 only that
// capture group is redacted and the rest of the match (e.g. a leading
// "Account no:") is kept.
type pattern struct {
	re       *regexp.Regexp
	category Category
	group    int
}

// patternSpecs is ordered so specific patterns run before looser ones that
// could swallow them: a personal number is also shaped like an organisation
// number, so national ids go first.
var patternSpecs = []struct {
	expr     string
	category Category
	group    int
}{
	// YYMMDD-NNNN / YYYYMMDD-NNNN with a plausible month and day.
	{`\b(?:19|20)?\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])[-+]\d{4}\b`, CategoryNationalID, 0},
	// IBAN: country code, check digits, at least 12 more alphanumerics.
	{`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){3,7}(?: ?[A-Z0-9]{1,3})?\b`, CategoryBankAccount, 0},
	// Account numbers introduced by a keyword: one hyphenated digit run,
	// optionally followed by a single space and one more run. A second space
	// ends the number, so a trailing amount is kept.
	{`(?i)\b(?:bank\s*account|account|acct|konto|kontonummer|bankgiro|plusgiro)(?:\s*(?:no\.?|nr\.?|number))?\s*[:#]?\s*(\d[\d-]{4,}\d(?: \d[\d-]*\d)?|\d[\d-]{2,}\d \d[\d-]*\d)`, CategoryBankAccount, 1},
	// Organisation numbers NNNNNN-NNNN and EU VAT numbers.
	{`\b\d{6}-\d{4}\b`, CategoryCompanyReg, 0},
	{`\b[A-Z]{2}\d{10}01\b`, CategoryCompanyReg, 0},
	{`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`, CategoryEmail, 0},
	// "123 45 Stockholm", optionally "SE-123 45 Stockholm", on one line.
	{`\b(?:SE-)?\d{3} \d{2}[ \t]+\p{Lu}\p{Ll}+(?:[ -]\p{Lu}\p{Ll}+)?`, CategoryPostalAddress, 0},
}

var defaultPatterns = compilePatterns()

func compilePatterns() []pattern {
	out := make([]pattern, 0, len(patternSpecs))
	for _, s := range patternSpecs {
		out = append(out, pattern{re: regexp.MustCompile(s.expr), category: s.category, group: s.group})
	}
	return out
}

// PIIScrubber holds the tag registry of one scrub call.
type PIIScrubber struct {
	patterns []pattern
	tags     map[Category]map[string]string // raw value → tag
	counts   map[Category]int               // replaced occurrences
	total    int
}

// NewPIIScrubber returns a scrubber with a fresh registry.
func NewPIIScrubber() *PIIScrubber {
	return &PIIScrubber{
		patterns: defaultPatterns,
		tags:     make(map[Category]map[string]string),
		counts:   make(map[Category]int),
	}
}

// Scrub replaces every detected PII value in text and returns the result and
// the number of values replaced. Repeated calls on the same scrubber share
// its registry, so the same value keeps its tag.
func (s *PIIScrubber) Scrub(text string) (string, int) {
	if text == "" {
		return text, 0
	}
	before := s.total
	for _, p := range s.patterns {
		text = s.apply(p, text)
	}
	return text, s.total - before
}

func (s *PIIScrubber) apply(p pattern, text string) string {
	matches := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2*p.group], m[2*p.group+1]
		if start < 0 {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(s.tag(p.category, text[start:end]))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// tag returns the tag for raw, registering it on first sight.
func (s *PIIScrubber) tag(c Category, raw string) string {
	s.total++
	s.counts[c]++
	seen := s.tags[c]
	if seen == nil {
		seen = make(map[string]string)
		s.tags[c] = seen
	}
	if t, ok := seen[raw]; ok {
		return t
	}
	t := fmt.Sprintf("[%s_%d]", c, len(seen)+1)
	seen[raw] = t
	return t
}

// Counts returns replaced occurrences per category.
func (s *PIIScrubber) Counts() map[Category]int {
	out := make(map[Category]int, len(s.counts))
	for c, n := range s.counts {
		out[c] = n
	}
	return out
}

// ScrubPII redacts structured PII in text with a call-scoped registry.
func ScrubPII(text string) (string, int) {
	return NewPIIScrubber().Scrub(text)
}
