package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

var (
	crlf       = []byte("\r\n")
	terminator = []byte(".\r\n")
	blockEnd   = []byte("\r\n.\r\n")
)

// Blocks above this size do not keep their buffer for reuse.
const maxRetainedBlockCapacity = 4 * 1024 * 1024

// ReadResponseLine reads the next status line, including its CRLF.
//
// Per RFC 3977 the status line is UTF-8; anything else is ErrInvalidUTF8.
// Returns ErrPrematureClose if the transport ends before the CRLF.
func (s *Stream) ReadResponseLine() (string, error) {
	line, err := s.readLine(s.line[:0], s.maxLineLength, ErrLineTooLong)
	s.line = line[:0]
	if err != nil {
		return "", err
	}
	if !utf8.Valid(line) {
		return "", ErrInvalidUTF8
	}
	return string(line), nil
}

// ReadBlock reads a multiline block through its terminator line and returns
// the content with the final "\r\n.\r\n" removed.
//
// The returned slice aliases the Stream's buffer and is only valid until
// the next read.
func (s *Stream) ReadBlock() ([]byte, error) {
	if s.compressed {
		return s.readCompressedBlock()
	}

	buf := s.buf[:0]
	for {
		start := len(buf)
		var err error
		buf, err = s.readLine(buf, s.maxBlockLength-start, ErrBlockTooLarge)
		if err != nil {
			s.release(buf)
			return nil, err
		}
		// Every line starts at a line boundary, so comparing the whole
		// line is enough to tell a terminator from a "..": stuffed line.
		if bytes.Equal(buf[start:], terminator) {
			buf = buf[:start]
			break
		}
	}

	s.release(buf)
	s.log.Debug("block read", "bytes", len(buf))
	return bytes.TrimSuffix(buf, crlf), nil
}

// readLine appends one CRLF terminated line to dst. A bare LF does not end
// a line. limit bounds the number of bytes appended; tooLong is returned
// when it is exceeded.
func (s *Stream) readLine(dst []byte, limit int, tooLong error) ([]byte, error) {
	start := len(dst)
	for {
		chunk, err := s.r.ReadSlice('\n')
		dst = append(dst, chunk...)
		s.bytesRead += int64(len(chunk))

		if len(dst)-start > limit {
			return dst, tooLong
		}

		switch {
		case err == nil:
			if len(dst)-start >= 2 && dst[len(dst)-2] == '\r' {
				s.linesRead++
				return dst, nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
			// Long line; keep appending.
		case errors.Is(err, io.EOF):
			return dst, ErrPrematureClose
		default:
			return dst, &IOError{Op: "read", Err: err}
		}
	}
}

// release keeps buf's storage for the next block unless it grew too large.
func (s *Stream) release(buf []byte) {
	if cap(buf) > maxRetainedBlockCapacity {
		s.buf = make([]byte, 0, initialBlockCapacity)
		return
	}
	s.buf = buf[:0]
}

// readCompressedBlock decodes one zlib stream straight off the transport.
// The decoder reads through countingReader, which is an io.ByteReader, so
// it stops exactly at the end of the compressed data.
func (s *Stream) readCompressedBlock() ([]byte, error) {
	src := countingReader{s}
	if s.zr == nil {
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, s.decompressError(err)
		}
		s.zr = zr
	} else if err := s.zr.(zlib.Resetter).Reset(src, nil); err != nil {
		return nil, s.decompressError(err)
	}

	buf := s.buf[:0]
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := s.zr.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if len(buf) > s.maxBlockLength {
			s.release(buf)
			return nil, ErrBlockTooLarge
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			s.release(buf)
			return nil, s.decompressError(err)
		}
	}
	s.release(buf)

	// XFEATURE COMPRESS GZIP TERMINATOR puts the terminator inside the
	// compressed data.
	if bytes.Equal(buf, terminator) {
		return buf[:0], nil
	}
	if bytes.HasSuffix(buf, blockEnd) {
		return buf[:len(buf)-len(blockEnd)], nil
	}

	// Otherwise a plain terminator line follows the compressed data.
	for {
		line, err := s.readLine(s.line[:0], s.maxLineLength, ErrLineTooLong)
		s.line = line[:0]
		if err != nil {
			return nil, err
		}
		if bytes.Equal(line, terminator) {
			break
		}
		if !bytes.Equal(line, crlf) {
			return nil, ErrCompressedTerminator
		}
	}
	s.log.Debug("compressed block read", "bytes", len(buf))
	return bytes.TrimSuffix(buf, crlf), nil
}

func (s *Stream) decompressError(err error) error {
	return &DecompressError{Offset: s.bytesRead, Err: err}
}

// countingReader feeds the decompressor from the buffered reader while
// keeping the byte counter current.
type countingReader struct {
	s *Stream
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.s.r.Read(p)
	c.s.bytesRead += int64(n)
	return n, err
}

func (c countingReader) ReadByte() (byte, error) {
	b, err := c.s.r.ReadByte()
	if err == nil {
		c.s.bytesRead++
	}
	return b, err
}
