package stream

import (
	"bufio"
	"io"
	"log/slog"
	"time"
)

// Transport is the duplex byte channel a Stream frames. *net.TCPConn and
// *tls.Conn both satisfy it. If the transport also implements io.Closer,
// Stream.Close closes it.
type Transport interface {
	io.Reader
	io.Writer
}

// Stream reads NNTP status lines and multiline blocks from a Transport and
// writes commands to it.
//
// Reads go through a bufio.Reader, so bytes belonging to a later pipelined
// response are kept until they are asked for. Writes go through a
// bufio.Writer and are only sent on Flush.
type Stream struct {
	transport Transport
	r         *bufio.Reader
	w         *bufio.Writer

	buf  []byte // block buffer, truncated after every block
	line []byte // status line scratch

	maxLineLength  int
	maxBlockLength int

	bytesRead    int64
	bytesWritten int64
	linesRead    int64
	startedAt    time.Time

	compressed bool
	zr         io.ReadCloser

	log *slog.Logger
}

// New creates a Stream over t.
//
// Example:
//
//	s := stream.New(conn, stream.WithMaxBlockLength(64<<20))
func New(t Transport, opts ...Option) *Stream {
	cfg := &config{
		readBufferSize:  defaultReadBufferSize,
		writeBufferSize: defaultWriteBufferSize,
		maxLineLength:   defaultMaxLineLength,
		maxBlockLength:  defaultMaxBlockLength,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	return &Stream{
		transport:      t,
		r:              bufio.NewReaderSize(t, cfg.readBufferSize),
		w:              bufio.NewWriterSize(t, cfg.writeBufferSize),
		buf:            make([]byte, 0, initialBlockCapacity),
		line:           make([]byte, 0, 128),
		maxLineLength:  cfg.maxLineLength,
		maxBlockLength: cfg.maxBlockLength,
		startedAt:      time.Now(),
		log:            cfg.logger,
	}
}

// EnableCompression makes every following ReadBlock decode its payload as a
// zlib stream. It is called once the server accepted XFEATURE COMPRESS GZIP.
func (s *Stream) EnableCompression() {
	s.compressed = true
}

// Compressed reports whether block compression is active.
func (s *Stream) Compressed() bool {
	return s.compressed
}

// Close closes the transport if it implements io.Closer. Buffered, unflushed
// writes are discarded.
func (s *Stream) Close() error {
	if s.zr != nil {
		s.zr.Close()
	}
	if c, ok := s.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// BytesRead returns the number of bytes consumed from the transport.
func (s *Stream) BytesRead() int64 {
	return s.bytesRead
}

// BytesWritten returns the number of bytes handed to the write buffer.
func (s *Stream) BytesWritten() int64 {
	return s.bytesWritten
}

// Stats is a snapshot of a Stream's counters. It is for diagnostics only.
type Stats struct {
	BytesRead    int64
	BytesWritten int64
	LinesRead    int64
	Elapsed      time.Duration
	Compressed   bool
}

// Stats returns the current counters.
func (s *Stream) Stats() Stats {
	return Stats{
		BytesRead:    s.bytesRead,
		BytesWritten: s.bytesWritten,
		LinesRead:    s.linesRead,
		Elapsed:      time.Since(s.startedAt),
		Compressed:   s.compressed,
	}
}

// LogValue implements slog.LogValuer.
func (st Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("bytes_read", st.BytesRead),
		slog.Int64("bytes_written", st.BytesWritten),
		slog.Int64("lines_read", st.LinesRead),
		slog.Duration("elapsed", st.Elapsed),
		slog.Bool("compressed", st.Compressed),
	)
}
