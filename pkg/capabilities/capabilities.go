// Package capabilities classifies the lines of an NNTP CAPABILITIES reply.
package capabilities

import (
	"slices"
	"strings"
)

// Kind identifies a capability variant.
type Kind int

const (
	Other Kind = iota
	Version
	Authinfo
	List
	Compress

	Reader
	Post
	Over
	Hdr
	NewNews
	ModeReader
	XHdr
	XOver
	XZVer
	XZHdr
	StartTLS
	IHave
	Streaming
)

var kindNames = map[Kind]string{
	Other:      "OTHER",
	Version:    "VERSION",
	Authinfo:   "AUTHINFO",
	List:       "LIST",
	Compress:   "XFEATURE-COMPRESS",
	Reader:     "READER",
	Post:       "POST",
	Over:       "OVER",
	Hdr:        "HDR",
	NewNews:    "NEWNEWS",
	ModeReader: "MODE-READER",
	XHdr:       "XHDR",
	XOver:      "XOVER",
	XZVer:      "XZVER",
	XZHdr:      "XZHDR",
	StartTLS:   "STARTTLS",
	IHave:      "IHAVE",
	Streaming:  "STREAMING",
}

// Single-token capabilities recognized by Parse.
var vocabulary = map[string]Kind{
	"READER":      Reader,
	"POST":        Post,
	"OVER":        Over,
	"HDR":         Hdr,
	"NEWNEWS":     NewNews,
	"MODE-READER": ModeReader,
	"XHDR":        XHdr,
	"XOVER":       XOver,
	"XZVER":       XZVer,
	"XZHDR":       XZHdr,
	"STARTTLS":    StartTLS,
	"IHAVE":       IHave,
	"STREAMING":   Streaming,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Compression is a compression algorithm named in an XFEATURE-COMPRESS line.
// Names outside GZIP and TERMINATOR are kept as written.
type Compression string

const (
	GZIP       Compression = "GZIP"
	Terminator Compression = "TERMINATOR"
)

// Capability is one advertised capability.
//
// Which fields are set depends on Kind:
//   - Version, Authinfo: Arg
//   - List: Args holds the LIST sub-capabilities
//   - Compress: Algorithms
//   - Other: Args holds every token of the line
//   - vocabulary kinds: nothing
type Capability struct {
	Kind       Kind
	Arg        string
	Args       []string
	Algorithms []Compression
}

// Parse classifies one capability line. One token is looked up in the
// fixed vocabulary and two tokens can only be VERSION or AUTHINFO; LIST and
// XFEATURE-COMPRESS lines need at least one more token. Anything else is
// Other.
func Parse(line string) Capability {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Capability{Kind: Other}
	}

	switch len(tokens) {
	case 1:
		if k, ok := vocabulary[tokens[0]]; ok {
			return Capability{Kind: k}
		}
	case 2:
		switch tokens[0] {
		case "VERSION":
			return Capability{Kind: Version, Arg: tokens[1]}
		case "AUTHINFO":
			return Capability{Kind: Authinfo, Arg: tokens[1]}
		}
	default:
		switch tokens[0] {
		case "LIST":
			return Capability{Kind: List, Args: tokens[1:]}
		case "XFEATURE-COMPRESS":
			algs := make([]Compression, 0, len(tokens)-1)
			for _, t := range tokens[1:] {
				algs = append(algs, Compression(t))
			}
			return Capability{Kind: Compress, Algorithms: algs}
		}
	}
	return Capability{Kind: Other, Args: tokens}
}

// Equal reports exact equality.
func (c Capability) Equal(o Capability) bool {
	return c.Kind == o.Kind &&
		c.Arg == o.Arg &&
		slices.Equal(c.Args, o.Args) &&
		slices.Equal(c.Algorithms, o.Algorithms)
}

// Supports reports whether every algorithm in want is advertised by c.
func (c Capability) Supports(want []Compression) bool {
	for _, w := range want {
		if !slices.Contains(c.Algorithms, w) {
			return false
		}
	}
	return true
}

func (c Capability) String() string {
	switch c.Kind {
	case Version, Authinfo:
		return c.Kind.String() + " " + c.Arg
	case List:
		return strings.Join(append([]string{"LIST"}, c.Args...), " ")
	case Compress:
		parts := []string{c.Kind.String()}
		for _, a := range c.Algorithms {
			parts = append(parts, string(a))
		}
		return strings.Join(parts, " ")
	case Other:
		return strings.Join(c.Args, " ")
	default:
		return c.Kind.String()
	}
}

// Query constructors for Set.Can.

// WithVersion returns a VERSION capability query.
func WithVersion(v string) Capability {
	return Capability{Kind: Version, Arg: v}
}

// WithAuthinfo returns an AUTHINFO capability query.
func WithAuthinfo(mechanism string) Capability {
	return Capability{Kind: Authinfo, Arg: mechanism}
}

// WithCompression returns an XFEATURE-COMPRESS query for algs.
func WithCompression(algs ...Compression) Capability {
	return Capability{Kind: Compress, Algorithms: algs}
}

// Of returns a query for a single-token capability such as Reader.
func Of(k Kind) Capability {
	return Capability{Kind: k}
}
