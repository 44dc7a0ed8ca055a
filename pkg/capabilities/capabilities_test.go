package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Capability
	}{
		{"READER", Capability{Kind: Reader}},
		{"POST", Capability{Kind: Post}},
		{"OVER", Capability{Kind: Over}},
		{"MODE-READER", Capability{Kind: ModeReader}},
		{"XZVER", Capability{Kind: XZVer}},
		{"VERSION 2", Capability{Kind: Version, Arg: "2"}},
		{"AUTHINFO USER", Capability{Kind: Authinfo, Arg: "USER"}},
		{"LIST ACTIVE NEWSGROUPS OVERVIEW.FMT", Capability{Kind: List, Args: []string{"ACTIVE", "NEWSGROUPS", "OVERVIEW.FMT"}}},
		{"XFEATURE-COMPRESS GZIP TERMINATOR", Capability{Kind: Compress, Algorithms: []Compression{GZIP, Terminator}}},
		{"XFEATURE-COMPRESS GZIP BZIP2", Capability{Kind: Compress, Algorithms: []Compression{GZIP, "BZIP2"}}},
		{"FROBNICATE", Capability{Kind: Other, Args: []string{"FROBNICATE"}}},
		{"IMPLEMENTATION INN 2.5.4", Capability{Kind: Other, Args: []string{"IMPLEMENTATION", "INN", "2.5.4"}}},
		{"SASL PLAIN DIGEST-MD5", Capability{Kind: Other, Args: []string{"SASL", "PLAIN", "DIGEST-MD5"}}},
		{"MODE READER", Capability{Kind: Other, Args: []string{"MODE", "READER"}}},
		{"LIST", Capability{Kind: Other, Args: []string{"LIST"}}},
		{"LIST ACTIVE", Capability{Kind: Other, Args: []string{"LIST", "ACTIVE"}}},
		{"XFEATURE-COMPRESS GZIP", Capability{Kind: Other, Args: []string{"XFEATURE-COMPRESS", "GZIP"}}},
		{"LIST ACTIVE NEWSGROUPS", Capability{Kind: List, Args: []string{"ACTIVE", "NEWSGROUPS"}}},
		{"  VERSION\t2  ", Capability{Kind: Version, Arg: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := Parse(tt.line)
			assert.True(t, tt.want.Equal(got), "got %#v", got)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	assert.Equal(t, Other, Parse("   ").Kind)
}

const capabilityBlock = "VERSION 2\r\n" +
	"IMPLEMENTATION INN 2.6.4\r\n" +
	"AUTHINFO USER\r\n" +
	"HDR\r\n" +
	"LIST ACTIVE ACTIVE.TIMES COUNTS DISTRIB.PATS HEADERS MODERATORS MOTD NEWSGROUPS OVERVIEW.FMT\r\n" +
	"NEWNEWS\r\n" +
	"OVER\r\n" +
	"POST\r\n" +
	"READER\r\n" +
	"XFEATURE-COMPRESS GZIP TERMINATOR"

func TestParseBlock(t *testing.T) {
	set := ParseBlock([]byte(capabilityBlock))
	require.Len(t, set, 10)
	assert.Equal(t, "2", set.Version())
	assert.True(t, set.Has(List))
	assert.False(t, set.Has(StartTLS))
	assert.Equal(t, "IMPLEMENTATION INN 2.6.4", set[1].String())
}

func TestParseBlock_SkipsBlankLines(t *testing.T) {
	set := ParseBlock([]byte("READER\r\n\r\nPOST"))
	require.Len(t, set, 2)
	assert.Empty(t, ParseBlock(nil))
}

func TestCan_Exact(t *testing.T) {
	set := ParseBlock([]byte(capabilityBlock))

	assert.True(t, set.Can(Of(Reader)))
	assert.True(t, set.Can(WithVersion("2")))
	assert.False(t, set.Can(WithVersion("1")))
	assert.True(t, set.Can(WithAuthinfo("USER")))
	assert.False(t, set.Can(WithAuthinfo("SASL")))
	assert.False(t, set.Can(Of(XZVer)))
	assert.False(t, set.Can(Capability{Kind: List, Args: []string{"ACTIVE"}}), "LIST queries are exact")
}

func TestCan_CompressionSubset(t *testing.T) {
	set := ParseBlock([]byte("XFEATURE-COMPRESS GZIP TERMINATOR"))

	assert.True(t, set.Can(WithCompression(GZIP)))
	assert.True(t, set.Can(WithCompression(Terminator, GZIP)))
	assert.True(t, set.Can(WithCompression()))
	assert.False(t, set.Can(WithCompression(GZIP, "BZIP2")))
}

func TestCan_NoCompressionAdvertised(t *testing.T) {
	set := ParseBlock([]byte("READER"))
	assert.False(t, set.Can(WithCompression(GZIP)))

	// A single algorithm is a two-token line, which is not a compression
	// advertisement.
	set = ParseBlock([]byte("XFEATURE-COMPRESS GZIP\r\nLIST ACTIVE"))
	assert.False(t, set.Can(WithCompression(GZIP)))
	assert.False(t, set.Has(Compress))
	assert.False(t, set.Has(List))

	var empty Set
	assert.False(t, empty.Can(Of(Reader)))
}

func TestString(t *testing.T) {
	for _, line := range []string{
		"VERSION 2",
		"AUTHINFO USER",
		"LIST ACTIVE NEWSGROUPS",
		"XFEATURE-COMPRESS GZIP TERMINATOR",
		"READER",
		"IMPLEMENTATION INN 2.6.4",
	} {
		assert.Equal(t, line, Parse(line).String())
	}
	assert.Equal(t, "UNKNOWN", Kind(999).String())
}
