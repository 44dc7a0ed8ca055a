package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbTable(t *testing.T) {
	for v := VerbGreeting; v <= VerbModeReader; v++ {
		assert.NotZero(t, v.Code(), "verb %d has no success code", v)
		assert.NotEqual(t, "UNKNOWN", v.String())
	}
	assert.Equal(t, "UNKNOWN", Verb(-1).String())
}

func TestVerb_Codes(t *testing.T) {
	tests := []struct {
		verb  Verb
		code  int
		block bool
	}{
		{VerbQuit, 205, false},
		{VerbList, 215, true},
		{VerbListGroup, 211, true},
		{VerbGroup, 211, false},
		{VerbArticle, 220, true},
		{VerbHead, 221, true},
		{VerbBody, 222, true},
		{VerbStat, 223, false},
		{VerbCapabilities, 101, true},
		{VerbAuthinfoUser, 381, false},
		{VerbAuthinfoPass, 281, false},
		{VerbCompress, 290, false},
		{VerbXZHdr, 221, true},
		{VerbOver, 224, true},
	}
	for _, tt := range tests {
		t.Run(tt.verb.String(), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.verb.Code())
			assert.True(t, tt.verb.Accepts(tt.code))
			assert.Equal(t, tt.block, tt.verb.HasBlock(tt.code))
			assert.False(t, tt.verb.HasBlock(500))
		})
	}
}

func TestVerb_AlternateCodes(t *testing.T) {
	assert.True(t, VerbAuthinfoUser.Accepts(281))
	assert.True(t, VerbModeReader.Accepts(201))
	assert.True(t, VerbGreeting.Accepts(201))
	assert.False(t, VerbGroup.Accepts(411))
}

func TestVerb_Command(t *testing.T) {
	assert.Equal(t, "QUIT\r\n", VerbQuit.command())
	assert.Equal(t, "HEAD 42\r\n", VerbHead.command("42"))
	assert.Equal(t, "ARTICLE\r\n", VerbArticle.command(""))
	assert.Equal(t, "AUTHINFO USER alice\r\n", VerbAuthinfoUser.command("alice"))
	assert.Equal(t, "XFEATURE COMPRESS GZIP TERMINATOR\r\n", VerbCompress.command("TERMINATOR"))
	assert.Equal(t, "LISTGROUP comp.test 1-5\r\n", VerbListGroup.command("comp.test", "1-5"))
}

func TestVerb_CheckArgs(t *testing.T) {
	tests := []struct {
		verb Verb
		args []string
		ok   bool
	}{
		{VerbAuthinfoUser, []string{"alice"}, true},
		{VerbAuthinfoUser, []string{""}, false},
		{VerbAuthinfoPass, nil, false},
		{VerbGroup, []string{""}, false},
		{VerbXHdr, []string{"Subject", ""}, true},
		{VerbXHdr, []string{"", "1-5"}, false},
		{VerbNewNews, []string{"", "20250101 000000", "GMT"}, false},
		{VerbArticle, []string{""}, true},
		{VerbListGroup, nil, true},
		{VerbHead, []string{"1\r\nQUIT"}, false},
	}
	for _, tt := range tests {
		err := tt.verb.checkArgs(tt.args)
		if tt.ok {
			assert.NoError(t, err, "%s %q", tt.verb, tt.args)
		} else {
			assert.ErrorIs(t, err, ErrInvalidArgument, "%s %q", tt.verb, tt.args)
		}
	}
}

func TestRange(t *testing.T) {
	assert.Equal(t, "1-5", Range(1, 5))
	assert.Equal(t, "100-", Range(100, 0))
	assert.Equal(t, "7", Number(7))
}
