// Package stream implements NNTP response framing over a byte transport.
//
// NNTP replies come in two shapes. Every reply starts with a status line:
//
//	<3 digit code> SP <text> CRLF
//
// Some replies are followed by a multiline block, a sequence of CRLF
// terminated lines ended by a line holding a single dot:
//
//	215 list of newsgroups follows\r\n
//	comp.lang.go 0000012345 0000000001 y\r\n
//	alt.test 0000000200 0000000100 y\r\n
//	.\r\n
//
// # Basic Usage
//
// Writing commands (buffered, so several commands can be pipelined):
//
//	s := stream.New(conn)
//	s.WriteCommandString("HEAD 1\r\n")
//	s.WriteCommandString("HEAD 2\r\n")
//	s.Flush()
//
// Reading replies:
//
//	line, err := s.ReadResponseLine() // "221 1 <id@host> head\r\n"
//	block, err := s.ReadBlock()       // header lines without the terminator
//
// # Framing Rules
//
// A terminator is only recognized at a line boundary, so a terminator split
// across several transport reads is found, and a dot-stuffed content line
// ("..foo") is never mistaken for one. ReadBlock removes the trailing five
// bytes "\r\n.\r\n": the returned block keeps every content line terminator
// except the last one. Bytes following the terminator stay buffered and are
// returned by the next read, which is what makes pipelining work.
//
// ReadBlock does not remove dot-stuffing. Use Unstuff when the content
// needs to be restored byte for byte.
//
// # Buffer Ownership
//
// The slice returned by ReadBlock aliases a buffer owned by the Stream and
// is only valid until the next read. Copy it to keep it.
//
// # Compression
//
// After EnableCompression, block payloads are read as a zlib stream
// (XFEATURE COMPRESS GZIP). A payload that fails to decode yields a
// *DecompressError; the connection cannot be recovered after that.
//
// # Concurrency
//
// A Stream is owned by one goroutine. There are no internal timeouts: set
// deadlines on the underlying net.Conn, or close it to abort a blocked read.
package stream
