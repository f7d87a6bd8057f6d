// Package anonymizer swaps real identities in a DataPackage for pseudonyms
// before it is sent to an external analysis service, and maps the service's
// answer back for the authorised user.
//
// Anonymize works on a deep copy of its input:
//  1. Collect the distinct employee and project names from every identity field.
//  2. Allocate pseudonyms (package pseudonym); the company becomes "The Company".
//  3. Rewrite identity fields and blank every opaque id.
//  4. Rewrite free text in one longest-match-first pass over all real names.
//
// Measurement fields (hours, amounts, dates) are never touched.
// The returned IdentityMap is the only link back to the real names; it lives
// as long as the caller keeps it.
package anonymizer

import (
	"ai-privacy-relay/internal/pseudonym"
	"ai-privacy-relay/internal/textmatch"
)

// Anonymize returns an anonymized deep copy of p and the identity map used.
// p is never modified. A nil package yields nil and an empty map.
func Anonymize(p *DataPackage) (*DataPackage, *IdentityMap) {
	if p == nil {
		return nil, NewIdentityMap()
	}

	var employees, projects []string
	walkFields(p, func(kind fieldKind, field *string) {
		switch kind {
		case employeeName:
			employees = append(employees, *field)
		case projectName:
			projects = append(projects, *field)
		}
	})

	m := &IdentityMap{
		Employees: pseudonym.AllocateEmployees(employees),
		Projects:  pseudonym.AllocateProjects(projects),
		Company:   map[string]string{},
	}
	if p.Company.Name != "" {
		m.Company[p.Company.Name] = CompanyPseudonym
	}

	// Free text is substring-matched: over-redacting a fragment is preferable
	// to leaking a name glued to punctuation or a suffix.
	text := textmatch.New(m.forwardPairs())

	out := clonePackage(p)
	walkFields(out, func(kind fieldKind, field *string) {
		switch kind {
		case employeeName:
			if ps, ok := m.Employees[*field]; ok {
				*field = ps
			}
		case projectName:
			if ps, ok := m.Projects[*field]; ok {
				*field = ps
			}
		case companyName:
			*field = CompanyPseudonym
		case opaqueID:
			*field = ""
		case freeText:
			*field, _ = text.Replace(*field)
		}
	})
	return out, m
}
