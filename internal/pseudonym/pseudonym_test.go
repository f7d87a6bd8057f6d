package pseudonym

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{18277, "ZZZ"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Code(c.index), "Code(%d)", c.index)
	}
}

func TestCodeNegativePanics(t *testing.T) {
	assert.Panics(t, func() { Code(-1) })
	assert.Panics(t, func() { ProjectLabel(-1) })
}

func TestCodesAreStrictlyOrderedAndUnique(t *testing.T) {
	seq := make([]string, 2000)
	for i := range seq {
		seq[i] = Code(i)
	}
	seen := make(map[string]bool, len(seq))
	for i, s := range seq {
		assert.False(t, seen[s], "duplicate code %q at %d", s, i)
		seen[s] = true
		if i > 0 {
			prev := seq[i-1]
			// Spreadsheet order: shorter codes first, then lexical.
			ordered := len(prev) < len(s) || (len(prev) == len(s) && prev < s)
			assert.True(t, ordered, "%q must come before %q", prev, s)
		}
	}
}

func TestAllocateEmployeesExample(t *testing.T) {
	got := AllocateEmployees([]string{"John Doe", "Jane Smith"})
	assert.Equal(t, map[string]string{
		"Jane Smith": "Employee A",
		"John Doe":   "Employee B",
	}, got)
}

func TestAllocateProjectsExample(t *testing.T) {
	got := AllocateProjects([]string{"Internal Tool", "ClientX Website"})
	assert.Equal(t, map[string]string{
		"ClientX Website": "Project Alpha",
		"Internal Tool":   "Project Beta",
	}, got)
}

func TestTwentySeventhEmployeeIsAA(t *testing.T) {
	names := make([]string, 27)
	for i := range names {
		names[i] = fmt.Sprintf("Person %03d", i)
	}
	got := AllocateEmployees(names)
	require.Len(t, got, 27)
	assert.Equal(t, "Employee AA", got[names[26]])
	assert.Equal(t, "Employee Z", got[names[25]])
}

func TestAllocateIsBijective(t *testing.T) {
	names := make([]string, 800)
	for i := range names {
		names[i] = fmt.Sprintf("user-%04d", i)
	}
	for _, alloc := range []func([]string) map[string]string{AllocateEmployees, AllocateProjects} {
		got := alloc(names)
		require.Len(t, got, len(names))
		reverse := make(map[string]string, len(got))
		for real, p := range got {
			other, dup := reverse[p]
			assert.False(t, dup, "%q and %q share %q", real, other, p)
			reverse[p] = real
		}
	}
}

func TestSortNamesCaseInsensitive(t *testing.T) {
	got := SortNames([]string{"bob", "Alice", "alice", "Bob", "", "alice", "Élise", "eve"})
	assert.Equal(t, []string{"Alice", "alice", "Bob", "bob", "eve", "Élise"}, got)
}

func TestAllocateEmpty(t *testing.T) {
	got := AllocateEmployees(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProjectLabelOverflow(t *testing.T) {
	assert.Equal(t, "Project Alpha", ProjectLabel(0))
	assert.Equal(t, "Project Omega", ProjectLabel(23))
	assert.Equal(t, "Project AA", ProjectLabel(24))
	assert.Equal(t, "Project AB", ProjectLabel(25))
}

func TestAllocationIsDeterministic(t *testing.T) {
	a := AllocateEmployees([]string{"Zed", "Amy", "Kim"})
	b := AllocateEmployees([]string{"Kim", "Zed", "Amy"})
	assert.Equal(t, a, b)
}
