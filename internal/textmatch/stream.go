package textmatch

import (
	"io"
	"strings"
	"unicode/utf8"
)

const streamReadSize = 4096

// reader applies a Replacer to a stream. It holds back enough bytes to cover
// the longest pattern plus one rune of look-ahead, so a pattern split across
// Read calls of the source is still matched.
type reader struct {
	r   *Replacer
	src io.Reader

	pending []byte // input not yet emitted; the first ctx bytes are look-behind only
	ctx     int
	out     []byte

	eof bool
	err error
}

// NewReader wraps src so that everything read through it has r applied.
// If r has no patterns src is returned unchanged.
func (r *Replacer) NewReader(src io.Reader) io.Reader {
	if r.size == 0 {
		return src
	}
	return &reader{r: r, src: src}
}

// Read implements io.Reader.
func (rd *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(rd.out) == 0 {
		if rd.eof {
			if rd.err != nil {
				return 0, rd.err
			}
			return 0, io.EOF
		}
		rd.fill()
	}
	n := copy(p, rd.out)
	rd.out = rd.out[n:]
	return n, nil
}

func (rd *reader) fill() {
	buf := make([]byte, streamReadSize)
	n, err := rd.src.Read(buf)
	rd.pending = append(rd.pending, buf[:n]...)
	if err != nil {
		rd.eof = true
		if err != io.EOF {
			rd.err = err
		}
	}
	rd.process()
}

// process emits every byte that can no longer be the start of a match.
func (rd *reader) process() {
	s := string(rd.pending)
	limit := len(s)
	if !rd.eof {
		limit = len(s) - rd.r.maxLen - utf8.UTFMax
		for limit > rd.ctx && !utf8.RuneStart(s[limit]) {
			limit--
		}
		if limit <= rd.ctx {
			return
		}
	}

	var b strings.Builder
	next, _ := rd.r.scan(&b, s, rd.ctx, limit)
	rd.out = append(rd.out, b.String()...)

	// Keep the last consumed rune so whole-word checks see the same
	// look-behind they would see on the unsplit text.
	keepFrom := next
	if next > 0 {
		_, size := utf8.DecodeLastRuneInString(s[:next])
		keepFrom = next - size
	}
	rd.pending = append(rd.pending[:0], s[keepFrom:]...)
	rd.ctx = next - keepFrom
}
