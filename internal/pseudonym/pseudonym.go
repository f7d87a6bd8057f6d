// Package pseudonym allocates stable, collision-free pseudonyms for a set of
// real names.
//
// Names are ordered case-insensitively and numbered from zero. Employees are
// labelled with the spreadsheet-column sequence (A … Z, AA, AB …); projects use
// Greek letter names and continue with the column sequence once those run out.
// Both schemes have unbounded capacity.
package pseudonym

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// Label prefixes.
const (
	EmployeePrefix = "Employee "
	ProjectPrefix  = "Project "
)

var greekLetters = []string{
	"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta",
	"Iota", "Kappa", "Lambda", "Mu", "Nu", "Xi", "Omicron", "Pi",
	"Rho", "Sigma", "Tau", "Upsilon", "Phi", "Chi", "Psi", "Omega",
}

// Code returns the i-th label of the bijective base-26 sequence:
// 0 → "A", 25 → "Z", 26 → "AA", 701 → "ZZ", 702 → "AAA".
// It panics on a negative index.
func Code(i int) string {
	if i < 0 {
		panic(fmt.Sprintf("pseudonym: negative sequence index %d", i))
	}
	var buf []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// EmployeeLabel returns the pseudonym for the i-th employee.
func EmployeeLabel(i int) string {
	return EmployeePrefix + Code(i)
}

// ProjectLabel returns the pseudonym for the i-th project. The first overflow
// label after the Greek letters is "Project AA".
func ProjectLabel(i int) string {
	if i < 0 {
		panic(fmt.Sprintf("pseudonym: negative sequence index %d", i))
	}
	if i < len(greekLetters) {
		return ProjectPrefix + greekLetters[i]
	}
	return ProjectPrefix + Code(i-len(greekLetters)+26)
}

// SortNames returns the distinct non-empty names in allocation order:
// case-insensitive (Unicode case folding), ties broken by byte order.
func SortNames(names []string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool, len(names))
	type keyed struct{ name, key string }
	list := make([]keyed, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		list = append(list, keyed{name: n, key: fold.String(n)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].key != list[j].key {
			return list[i].key < list[j].key
		}
		return list[i].name < list[j].name
	})
	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.name
	}
	return out
}

// Allocate maps every distinct name to label(i), where i is the name's
// position in SortNames order. No names yields an empty map.
func Allocate(names []string, label func(int) string) map[string]string {
	sorted := SortNames(names)
	out := make(map[string]string, len(sorted))
	for i, n := range sorted {
		out[n] = label(i)
	}
	return out
}

// AllocateEmployees assigns "Employee A", "Employee B", … in name order.
func AllocateEmployees(names []string) map[string]string {
	return Allocate(names, EmployeeLabel)
}

// AllocateProjects assigns "Project Alpha", "Project Beta", … in name order.
func AllocateProjects(names []string) map[string]string {
	return Allocate(names, ProjectLabel)
}
