package response

import (
	"bytes"
	"strings"
)

var crlf = []byte("\r\n")

// Header is one header entry. Name and Raw alias the block they were parsed
// from and must not be modified.
//
// Raw is the value as sent: it starts after the colon and one optional
// space, and keeps folded continuation lines with their CRLF and
// indentation, including the CRLF that ends the entry when present.
type Header struct {
	Name []byte
	Raw  []byte
}

// Value returns Raw without its trailing CRLF. Folding is preserved.
func (h Header) Value() []byte {
	return bytes.TrimSuffix(h.Raw, crlf)
}

// Unfolded returns the logical value: line breaks of folded continuations
// removed and surrounding whitespace trimmed.
func (h Header) Unfolded() string {
	return strings.TrimSpace(strings.ReplaceAll(string(h.Raw), "\r\n", ""))
}

// Headers is an ordered list of header entries. Lookup by name is
// case-insensitive and returns the first match.
type Headers []Header

// Lookup returns the first header named name.
func (hs Headers) Lookup(name string) (Header, bool) {
	for _, h := range hs {
		if bytes.EqualFold(h.Name, []byte(name)) {
			return h, true
		}
	}
	return Header{}, false
}

// Get returns the unfolded value of the first header named name, or "".
func (hs Headers) Get(name string) string {
	h, ok := hs.Lookup(name)
	if !ok {
		return ""
	}
	return h.Unfolded()
}

// Values returns the unfolded values of every header named name.
func (hs Headers) Values(name string) []string {
	var out []string
	for _, h := range hs {
		if bytes.EqualFold(h.Name, []byte(name)) {
			out = append(out, h.Unfolded())
		}
	}
	return out
}

// Parsed is the result of Parse.
type Parsed struct {
	Status     Status
	Headers    Headers
	BodyOffset int // Offset of the body in the parsed input
}

// Parse splits raw into its leading status line, the headers that follow,
// and the offset where the body starts. Headers alias raw.
func Parse(raw []byte) (Parsed, error) {
	end := bytes.Index(raw, crlf)
	if end < 0 {
		end = len(raw)
	}
	st, err := ParseStatus(string(raw[:end]))
	if err != nil {
		return Parsed{}, err
	}

	start := min(end+2, len(raw))
	hs, off := ParseHeaders(raw[start:])
	return Parsed{Status: st, Headers: hs, BodyOffset: start + off}, nil
}

// ParseHeaders scans block from the start for header entries until the
// first empty line. It returns the entries and the offset just past that
// empty line, or len(block) when there is none.
//
// Lines without a colon are skipped. A line starting with SP or HTAB
// continues the previous entry.
func ParseHeaders(block []byte) (Headers, int) {
	var hs Headers
	i := 0
	for i < len(block) {
		if bytes.HasPrefix(block[i:], crlf) {
			return hs, i + 2
		}

		start := i
		first := lineEnd(block, i)
		end := first
		for end < len(block) && isFold(block[end]) {
			end = lineEnd(block, end)
		}

		if colon := bytes.IndexByte(block[start:first], ':'); colon >= 0 {
			raw := block[start+colon+1 : end]
			if len(raw) > 0 && raw[0] == ' ' {
				raw = raw[1:]
			}
			hs = append(hs, Header{Name: block[start : start+colon], Raw: raw})
		}
		i = end
	}
	return hs, len(block)
}

// SplitMultiline groups block into entries of physical lines, joining
// folded continuation lines onto the line before them. Every entry keeps
// its CRLFs. The scan does not stop at an empty line.
func SplitMultiline(block []byte) [][]byte {
	var parts [][]byte
	i := 0
	for i < len(block) {
		start := i
		end := lineEnd(block, i)
		for end < len(block) && isFold(block[end]) {
			end = lineEnd(block, end)
		}
		parts = append(parts, block[start:end])
		i = end
	}
	return parts
}

// lineEnd returns the offset just past the CRLF ending the line that starts
// at i, or len(block) for an unterminated last line.
func lineEnd(block []byte, i int) int {
	n := bytes.Index(block[i:], crlf)
	if n < 0 {
		return len(block)
	}
	return i + n + 2
}

func isFold(b byte) bool {
	return b == ' ' || b == '\t'
}
