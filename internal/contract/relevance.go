package contract

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// cluster is a group of keywords for one kind of contract fact.
// Terms of four or more letters also match as word prefixes
// ("deliverab" style stems); shorter terms must match a whole word.
type cluster struct {
	name  string
	terms []string
}

var clusters = []cluster{
	{
		name: "monetary",
		terms: []string{
			"budget", "cost", "price", "pricing", "fee", "fees", "payment", "pay", "paid",
			"invoice", "invoic", "rate", "amount", "compensation", "remuneration",
			"expense", "hourly", "currency", "sek", "eur", "usd", "kr", "vat", "tax",
		},
	},
	{
		name: "scope",
		terms: []string{
			"scope", "deliverable", "deliver", "milestone", "service", "requirement",
			"task", "objective", "responsib", "acceptance", "specification",
			"assignment", "consult", "develop", "implement",
		},
	},
	{
		name: "deadline",
		terms: []string{
			"deadline", "due", "term", "duration", "date", "schedule", "expir",
			"terminat", "renewal", "period", "notice", "week", "month", "year",
			"start", "end", "until",
		},
	},
}

const currencySymbols = "$€£¥"

// Score rates how much budget, scope and deadline content text carries.
// Every keyword hit counts once per cluster; text touching several clusters
// gets a bonus of 50% per extra cluster. Text without hits scores 0.
func Score(text string) float64 {
	words := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	hits, touched := 0, 0
	for i, cl := range clusters {
		n := 0
		for _, w := range words {
			if matchesAny(w, cl.terms) {
				n++
			}
		}
		if i == 0 {
			for _, sym := range currencySymbols {
				n += strings.Count(text, string(sym))
			}
		}
		if n > 0 {
			hits += n
			touched++
		}
	}
	if hits == 0 {
		return 0
	}
	return float64(hits) * (1 + 0.5*float64(touched-1))
}

func matchesAny(word string, terms []string) bool {
	for _, t := range terms {
		if word == t || (len(t) >= 4 && strings.HasPrefix(word, t)) {
			return true
		}
	}
	return false
}

// ScoreAll returns a copy of chunks with Score filled in.
func ScoreAll(chunks []Chunk) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		c.Score = Score(c.Text)
		out[i] = c
	}
	return out
}

// Select keeps at most limit chunks. When there are no more than limit
// chunks they are returned unchanged. Otherwise chunks are ranked by Score
// (ties by position), the top limit are kept and returned in their original
// order with Score filled in. A non-positive limit selects DefaultChunkLimit.
func Select(chunks []Chunk, limit int) []Chunk {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	if len(chunks) <= limit {
		return chunks
	}

	type ranked struct {
		pos   int
		chunk Chunk
	}
	scored := ScoreAll(chunks)
	list := make([]ranked, len(scored))
	for i, c := range scored {
		list[i] = ranked{pos: i, chunk: c}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].chunk.Score != list[j].chunk.Score {
			return list[i].chunk.Score > list[j].chunk.Score
		}
		return list[i].pos < list[j].pos
	})

	top := list[:limit]
	sort.Slice(top, func(i, j int) bool { return top[i].pos < top[j].pos })
	out := make([]Chunk, limit)
	for i, r := range top {
		out[i] = r.chunk
	}
	return out
}

// Join concatenates chunk texts with blank lines, the inverse of Split.
func Join(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n\n")
}
