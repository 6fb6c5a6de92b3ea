package opennebula

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	escapeChar       = '\\'
	continuationChar = '\\'
)

// Line is one logical line of a context document.
type Line struct {
	Text string

	// Number is the physical line the logical line starts on.
	Number int
}

// Reader splits a context document into logical lines. Physical lines
// ending in an unescaped backslash are joined with the next one, and every
// backslash escape is resolved after joining. There is no comment
// character at this level; comments are handled by the classifier.
type Reader struct {
	br     *bufio.Reader
	lineno int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next logical line, or io.EOF when the document is
// exhausted. A continuation on the last physical line is not an error;
// whatever was collected is returned.
func (r *Reader) Next() (Line, error) {
	var (
		buf   strings.Builder
		start int
		have  bool
	)

	for {
		raw, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Line{}, err
		}
		if raw == "" && err != nil {
			if have {
				return Line{Text: logical(buf.String()), Number: start}, nil
			}
			return Line{}, io.EOF
		}

		r.lineno++
		if !have {
			start = r.lineno
			have = true
		}

		raw = strings.TrimSuffix(raw, "\n")
		cont := isContinued(raw)
		if cont {
			raw = raw[:len(raw)-1]
		}
		buf.WriteString(raw)

		if !cont || err != nil {
			return Line{Text: logical(buf.String()), Number: start}, nil
		}
	}
}

// isContinued reports whether s ends in a continuation character that is
// not itself escaped.
func isContinued(s string) bool {
	if s == "" || s[len(s)-1] != continuationChar {
		return false
	}
	n := 0
	for i := len(s) - 2; i >= 0 && s[i] == escapeChar; i-- {
		n++
	}
	return n%2 == 0
}

// logical finishes a joined line: escapes are resolved and the text ends
// at the first NUL byte.
func logical(s string) string {
	s = unescape(s)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

// unescape resolves every escape sequence to the escaped character.
// A trailing lone escape character is kept.
func unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == escapeChar && i+1 < len(s) {
			i++
			c = s[i]
		}
		b.WriteByte(c)
	}
	return b.String()
}
