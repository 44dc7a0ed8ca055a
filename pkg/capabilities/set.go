package capabilities

import (
	"bytes"
	"strings"
)

// Set is the capability list from one CAPABILITIES reply. A new reply
// replaces the previous Set; they are never merged.
type Set []Capability

// ParseBlock parses a CAPABILITIES block, one capability per non-empty line.
func ParseBlock(block []byte) Set {
	var set Set
	for _, line := range bytes.Split(block, []byte("\r\n")) {
		l := strings.TrimSpace(string(line))
		if l == "" {
			continue
		}
		set = append(set, Parse(l))
	}
	return set
}

// Can reports whether the set advertises c.
//
// Matching is exact, except for compression: a query succeeds when its
// algorithms are a subset of the first XFEATURE-COMPRESS line advertised.
func (s Set) Can(c Capability) bool {
	if c.Kind == Compress {
		for _, have := range s {
			if have.Kind == Compress {
				return have.Supports(c.Algorithms)
			}
		}
		return false
	}
	for _, have := range s {
		if have.Equal(c) {
			return true
		}
	}
	return false
}

// Has reports whether any capability of kind k is advertised.
func (s Set) Has(k Kind) bool {
	_, ok := s.Find(k)
	return ok
}

// Find returns the first capability of kind k.
func (s Set) Find(k Kind) (Capability, bool) {
	for _, c := range s {
		if c.Kind == k {
			return c, true
		}
	}
	return Capability{}, false
}

// Version returns the advertised protocol version, or "" if none.
func (s Set) Version() string {
	c, ok := s.Find(Version)
	if !ok {
		return ""
	}
	return c.Arg
}

// Strings renders every capability back to its line form.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.String()
	}
	return out
}
