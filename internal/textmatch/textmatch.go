// Package textmatch replaces many literal patterns in a single left-to-right pass.
//
// At every position the longest registered pattern wins, and replaced output is
// never scanned again. A pattern that is a strict prefix of another one
// ("Employee A" / "Employee AA", "Acme Corp" / "Acme Corporation") therefore
// can never break the longer match apart, no matter how many patterns exist.
//
// Usage:
//
//	r := textmatch.New([]textmatch.Pair{
//		{Find: "Employee A", Replace: "Jane Smith"},
//		{Find: "Employee AA", Replace: "Zoe Young"},
//	}, textmatch.WholeWord())
//	out, n := r.Replace("Employee AA reviewed Employee A's hours")
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pair is one literal pattern and the text that replaces it. A WholeWord
// pair only matches where it is not glued to a letter or digit on either
// side, even when the Replacer as a whole matches substrings.
type Pair struct {
	Find      string
	Replace   string
	WholeWord bool
}

// Option configures a Replacer.
type Option func(*Replacer)

// WholeWord rejects matches whose first or last character is glued to a
// letter or digit outside the match. "Employee A" then does not match inside
// "Employee AB".
func WholeWord() Option {
	return func(r *Replacer) { r.wholeWord = true }
}

type node struct {
	next  map[byte]*node
	end   bool
	whole bool
	repl  string
}

// Replacer is an immutable byte trie over all patterns. It is safe for
// concurrent use once built.
type Replacer struct {
	root      *node
	size      int
	maxLen    int
	wholeWord bool
}

// New builds a Replacer. Empty patterns are skipped; when the same pattern is
// registered twice the first replacement wins.
func New(pairs []Pair, opts ...Option) *Replacer {
	r := &Replacer{root: &node{}}
	for _, o := range opts {
		o(r)
	}
	for _, p := range pairs {
		if p.Find == "" {
			continue
		}
		r.insert(p)
	}
	return r
}

func (r *Replacer) insert(p Pair) {
	n := r.root
	for i := 0; i < len(p.Find); i++ {
		if n.next == nil {
			n.next = make(map[byte]*node)
		}
		child, ok := n.next[p.Find[i]]
		if !ok {
			child = &node{}
			n.next[p.Find[i]] = child
		}
		n = child
	}
	if n.end {
		return
	}
	n.end = true
	n.whole = p.WholeWord
	n.repl = p.Replace
	r.size++
	if len(p.Find) > r.maxLen {
		r.maxLen = len(p.Find)
	}
}

// Len returns the number of distinct patterns.
func (r *Replacer) Len() int { return r.size }

// Replace returns s with every match replaced and the number of replacements.
// When nothing matches s itself is returned.
func (r *Replacer) Replace(s string) (string, int) {
	if r.size == 0 || s == "" {
		return s, 0
	}
	var b strings.Builder
	b.Grow(len(s))
	_, n := r.scan(&b, s, 0, len(s))
	if n == 0 {
		return s, 0
	}
	return b.String(), n
}

// scan copies s[from:] into b, replacing matches that start before limit.
// It returns the offset where copying stopped (>= limit) and the number of
// replacements made.
func (r *Replacer) scan(b *strings.Builder, s string, from, limit int) (int, int) {
	i, count := from, 0
	for i < limit {
		if end, repl, ok := r.match(s, i); ok {
			b.WriteString(repl)
			i = end
			count++
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return i, count
}

// match returns the longest acceptable pattern starting at s[at].
func (r *Replacer) match(s string, at int) (int, string, bool) {
	startOK := isBoundary(s, at)
	if r.wholeWord && !startOK {
		return 0, "", false
	}
	var (
		n     = r.root
		end   int
		repl  string
		found bool
	)
	for i := at; i < len(s); i++ {
		n = n.next[s[i]]
		if n == nil {
			break
		}
		if !n.end {
			continue
		}
		if (r.wholeWord || n.whole) && !(startOK && isBoundary(s, i+1)) {
			continue
		}
		end, repl, found = i+1, n.repl, true
	}
	return end, repl, found
}

// isBoundary reports whether offset i does not sit between two word runes.
func isBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	before, _ := utf8.DecodeLastRuneInString(s[:i])
	after, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(before) || !isWordRune(after)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
