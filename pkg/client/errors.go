package client

import (
	"errors"
	"fmt"
)

var (
	// ErrPipelineOrder is returned when a typed pipelined read does not match
	// the oldest pending command, or when a simple command is issued while
	// pipelined responses are still unread.
	ErrPipelineOrder = errors.New("nntp: pipelined responses out of order")

	// ErrNothingPending is returned by a pipelined read with no pending command.
	ErrNothingPending = errors.New("nntp: no pipelined command pending")

	// ErrNotSupported is returned when an operation needs a capability the
	// server did not advertise.
	ErrNotSupported = errors.New("nntp: capability not advertised")

	// ErrInvalidArgument is returned for command arguments containing CR or
	// LF, and for a missing required argument.
	ErrInvalidArgument = errors.New("nntp: invalid command argument")

	// ErrClosed is returned after Close or Quit.
	ErrClosed = errors.New("nntp: client closed")
)

// UnexpectedStatusError reports a reply whose code is not a success code of
// the command that was sent. No block is read after such a reply.
type UnexpectedStatusError struct {
	Verb     Verb
	Expected int
	Actual   int
	Line     string // Status line without CRLF
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("nntp: %s: expected %d, got %q", e.Verb, e.Expected, e.Line)
}

// StatusCode extracts the server's reply code from an UnexpectedStatusError.
func StatusCode(err error) (int, bool) {
	var use *UnexpectedStatusError
	if errors.As(err, &use) {
		return use.Actual, true
	}
	return 0, false
}

// fatal reports whether err leaves the connection in an unknown state.
// Unexpected status codes do not: the server sent no block after them.
func fatal(err error) bool {
	var use *UnexpectedStatusError
	return err != nil && !errors.As(err, &use) &&
		!errors.Is(err, ErrPipelineOrder) &&
		!errors.Is(err, ErrNothingPending) &&
		!errors.Is(err, ErrNotSupported) &&
		!errors.Is(err, ErrInvalidArgument)
}
