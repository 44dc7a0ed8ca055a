// Package response holds NNTP replies and parses their status lines and
// header blocks.
//
// A Response owns its bytes. Headers returned from it are views into the
// Response's block: keep the Response reachable while using them and do not
// modify either.
package response

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
)

// Log output shows at most this much of a block.
const truncateAt = 1024

// Response is a status line plus the multiline block that followed it, if any.
type Response struct {
	line   string
	status Status
	block  []byte
}

// New builds a Response from a status line (with or without CRLF) and an
// optional block. The block is copied; nil means the reply had no block.
func New(line string, block []byte) (*Response, error) {
	line = strings.TrimSuffix(line, "\r\n")
	st, err := ParseStatus(line)
	if err != nil {
		return nil, err
	}

	r := &Response{line: line, status: st}
	if block != nil {
		r.block = bytes.Clone(block)
	}
	return r, nil
}

// Line returns the status line without its CRLF.
func (r *Response) Line() string {
	return r.line
}

// Status returns the parsed status line.
func (r *Response) Status() Status {
	return r.status
}

// Code returns the numeric status code.
func (r *Response) Code() int {
	return r.status.Code
}

// Message returns the status text after the code.
func (r *Response) Message() string {
	return r.status.Message
}

// Expected reports whether the status code equals code.
func (r *Response) Expected(code int) bool {
	return r.status.Code == code
}

// Success reports whether the code is in the 1xx, 2xx, or 3xx range.
func (r *Response) Success() bool {
	return r.status.Code < 400
}

// HasBlock reports whether a multiline block followed the status line.
func (r *Response) HasBlock() bool {
	return r.block != nil
}

// Block returns the raw block. The slice belongs to the Response.
func (r *Response) Block() []byte {
	return r.block
}

// Text returns the block as a string.
func (r *Response) Text() string {
	return string(r.block)
}

// Lines splits the block into lines without their CRLF.
func (r *Response) Lines() []string {
	if len(r.block) == 0 {
		return nil
	}
	return strings.Split(string(r.block), "\r\n")
}

// Headers parses the header section of the block (HEAD and ARTICLE replies).
func (r *Response) Headers() Headers {
	if r.block == nil {
		return nil
	}
	hs, _ := ParseHeaders(r.block)
	return hs
}

// Body returns the part of the block after the header section. For a BODY
// reply (222) the whole block is the body.
func (r *Response) Body() []byte {
	if r.block == nil {
		return nil
	}
	if r.status.Code == 222 {
		return r.block
	}
	_, off := ParseHeaders(r.block)
	return r.block[off:]
}

func (r *Response) String() string {
	return r.line
}

// LogValue implements slog.LogValuer. Long blocks are truncated.
func (r *Response) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("code", r.status.Code),
		slog.String("message", r.status.Message),
	}
	if r.block != nil {
		preview := r.block
		if len(preview) > truncateAt {
			preview = preview[:truncateAt]
			attrs = append(attrs, slog.Int("truncated", len(r.block)-truncateAt))
		}
		attrs = append(attrs, slog.String("block", string(preview)))
	}
	return slog.GroupValue(attrs...)
}

// GoString is used by %#v.
func (r *Response) GoString() string {
	return fmt.Sprintf("response.Response{line: %q, block: %d bytes}", r.line, len(r.block))
}
