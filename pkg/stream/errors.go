package stream

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors
var (
	// ErrPrematureClose indicates the transport ended before a line or block
	// terminator was seen. It wraps io.ErrUnexpectedEOF.
	ErrPrematureClose = fmt.Errorf("stream: connection closed before terminator: %w", io.ErrUnexpectedEOF)

	// ErrInvalidUTF8 indicates a response line that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("stream: response line is not valid utf-8")

	// ErrLineTooLong indicates a response line exceeding the configured maximum.
	ErrLineTooLong = errors.New("stream: response line exceeds maximum")

	// ErrBlockTooLarge indicates a multiline block exceeding the configured maximum.
	ErrBlockTooLarge = errors.New("stream: block exceeds maximum")

	// ErrCompressedTerminator indicates compressed block data that was not
	// followed by a terminator line.
	ErrCompressedTerminator = errors.New("stream: compressed block not terminated")
)

// DecompressError reports a compressed block that could not be decoded.
// It is fatal to the connection.
type DecompressError struct {
	Offset int64 // Bytes read from the transport when decoding failed
	Err    error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("stream: decompress failed after %d bytes: %v", e.Offset, e.Err)
}

func (e *DecompressError) Unwrap() error {
	return e.Err
}

// IOError wraps a transport failure with the operation that hit it.
type IOError struct {
	Op  string // "read" or "write" or "flush"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("stream: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
