package anonymizer

import (
	"io"

	"ai-privacy-relay/internal/textmatch"
)

// Record is one structured item parsed from the external service's output,
// e.g. an insight with a title and a description.
type Record = map[string]any

// Deanonymizer restores real names in text produced from anonymized data.
//
// All pseudonyms are matched in a single pass, longest first, so
// "Employee AA" is never read as "Employee A" followed by "A". Matches must
// stand as whole words: a label that is not in the map (say "Employee AB")
// is left exactly as it was.
type Deanonymizer struct {
	r *textmatch.Replacer
}

// NewDeanonymizer builds a Deanonymizer for m. A nil map restores nothing.
func NewDeanonymizer(m *IdentityMap) *Deanonymizer {
	var pairs []textmatch.Pair
	if m != nil {
		pairs = m.reversePairs()
	}
	return &Deanonymizer{r: textmatch.New(pairs, textmatch.WholeWord())}
}

// Text returns s with every known pseudonym replaced by its real name.
func (d *Deanonymizer) Text(s string) string {
	out, _ := d.r.Replace(s)
	return out
}

// TextCount is Text plus the number of pseudonyms restored.
func (d *Deanonymizer) TextCount(s string) (string, int) {
	return d.r.Replace(s)
}

// Records returns new records with every string value restored. Nested maps
// and slices are walked; numbers, booleans and nil pass through. The input is
// not modified.
func (d *Deanonymizer) Records(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i], _ = d.value(rec).(map[string]any)
	}
	return out
}

// Reader wraps a streamed response so pseudonyms are restored on the fly,
// including labels split across reads.
func (d *Deanonymizer) Reader(src io.Reader) io.Reader {
	return d.r.NewReader(src)
}

func (d *Deanonymizer) value(v any) any {
	switch val := v.(type) {
	case string:
		return d.Text(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = d.Text(s)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = d.value(item)
		}
		return out
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = d.value(item)
		}
		return out
	}
	return v
}

// Deanonymize restores real names in every string field of records.
func Deanonymize(records []Record, m *IdentityMap) []Record {
	return NewDeanonymizer(m).Records(records)
}

// DeanonymizeText restores real names in free text.
func DeanonymizeText(text string, m *IdentityMap) string {
	return NewDeanonymizer(m).Text(text)
}
