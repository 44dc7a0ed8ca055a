package client

import (
	"fmt"
	"slices"
	"strings"
)

// Verb is a protocol command the client knows how to send.
type Verb int

const (
	VerbGreeting Verb = iota // server banner, never sent
	VerbQuit
	VerbList
	VerbListGroup
	VerbGroup
	VerbArticle
	VerbHead
	VerbBody
	VerbStat
	VerbNext
	VerbLast
	VerbCapabilities
	VerbAuthinfoUser
	VerbAuthinfoPass
	VerbDate
	VerbHelp
	VerbNewGroups
	VerbNewNews
	VerbPost
	VerbPostArticle // the article sent after POST's 340, never sent as a command
	VerbCompress
	VerbXHdr
	VerbXZHdr
	VerbOver
	VerbXOver
	VerbModeReader
)

// verbDef is the wire form of a verb and the replies that count as success.
// Only the first code carries a block when block is set.
type verbDef struct {
	name  string
	codes []int
	block bool
}

var verbs = [...]verbDef{
	VerbGreeting:     {"", []int{200, 201}, false},
	VerbQuit:         {"QUIT", []int{205}, false},
	VerbList:         {"LIST", []int{215}, true},
	VerbListGroup:    {"LISTGROUP", []int{211}, true},
	VerbGroup:        {"GROUP", []int{211}, false},
	VerbArticle:      {"ARTICLE", []int{220}, true},
	VerbHead:         {"HEAD", []int{221}, true},
	VerbBody:         {"BODY", []int{222}, true},
	VerbStat:         {"STAT", []int{223}, false},
	VerbNext:         {"NEXT", []int{223}, false},
	VerbLast:         {"LAST", []int{223}, false},
	VerbCapabilities: {"CAPABILITIES", []int{101}, true},
	VerbAuthinfoUser: {"AUTHINFO USER", []int{381, 281}, false},
	VerbAuthinfoPass: {"AUTHINFO PASS", []int{281}, false},
	VerbDate:         {"DATE", []int{111}, false},
	VerbHelp:         {"HELP", []int{100}, true},
	VerbNewGroups:    {"NEWGROUPS", []int{231}, true},
	VerbNewNews:      {"NEWNEWS", []int{230}, true},
	VerbPost:         {"POST", []int{340}, false},
	VerbPostArticle:  {"", []int{240}, false},
	VerbCompress:     {"XFEATURE COMPRESS GZIP", []int{290}, false},
	VerbXHdr:         {"XHDR", []int{221}, true},
	VerbXZHdr:        {"XZHDR", []int{221}, true},
	VerbOver:         {"OVER", []int{224}, true},
	VerbXOver:        {"XOVER", []int{224}, true},
	VerbModeReader:   {"MODE READER", []int{200, 201}, false},
}

func (v Verb) def() verbDef {
	if v < 0 || int(v) >= len(verbs) {
		return verbDef{name: "UNKNOWN"}
	}
	return verbs[v]
}

func (v Verb) String() string {
	switch v {
	case VerbGreeting:
		return "GREETING"
	case VerbPostArticle:
		return "POST (article)"
	}
	return v.def().name
}

// Code returns the primary success code of v.
func (v Verb) Code() int {
	codes := v.def().codes
	if len(codes) == 0 {
		return 0
	}
	return codes[0]
}

// Accepts reports whether code is a success reply to v.
func (v Verb) Accepts(code int) bool {
	return slices.Contains(v.def().codes, code)
}

// HasBlock reports whether a reply with the given code is followed by a
// multiline block.
func (v Verb) HasBlock(code int) bool {
	s := v.def()
	return s.block && code == v.Code()
}

// requiredArgs is how many leading arguments a verb cannot do without.
// Other arguments are optional and left out of the command line when empty.
var requiredArgs = map[Verb]int{
	VerbAuthinfoUser: 1,
	VerbAuthinfoPass: 1,
	VerbGroup:        1,
	VerbXHdr:         1,
	VerbNewNews:      1,
}

// checkArgs rejects a missing required argument and any argument that would
// break the command line.
func (v Verb) checkArgs(args []string) error {
	for i := range requiredArgs[v] {
		if i >= len(args) || args[i] == "" {
			return fmt.Errorf("%w: %s needs %d argument(s)", ErrInvalidArgument, v, requiredArgs[v])
		}
	}
	for _, a := range args {
		if strings.ContainsAny(a, "\r\n") {
			return fmt.Errorf("%w: %q", ErrInvalidArgument, a)
		}
	}
	return nil
}

// command renders the wire line for v, CRLF included.
func (v Verb) command(args ...string) string {
	var b strings.Builder
	b.WriteString(v.def().name)
	for _, a := range args {
		if a == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteString("\r\n")
	return b.String()
}

// redacted reports whether v's arguments must not be logged.
func (v Verb) redacted() bool {
	return v == VerbAuthinfoPass || v == VerbAuthinfoUser
}
