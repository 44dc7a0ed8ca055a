package stream

import "log/slog"

const (
	// Default transport buffer sizes (64KB each way)
	defaultReadBufferSize  = 64 * 1024
	defaultWriteBufferSize = 64 * 1024

	// Status lines are short; RFC 3977 caps them at 512 octets but servers
	// are sloppy, so allow some headroom.
	defaultMaxLineLength = 64 * 1024

	// Default maximum block length (256MB)
	defaultMaxBlockLength = 256 * 1024 * 1024

	// Initial capacity of the reusable block buffer (32KB)
	initialBlockCapacity = 32 * 1024
)

// config holds stream configuration.
type config struct {
	readBufferSize  int
	writeBufferSize int
	maxLineLength   int
	maxBlockLength  int
	logger          *slog.Logger
}

// Option configures a Stream.
type Option func(*config)

// WithReadBufferSize sets the size of the buffered reader wrapping the transport.
//
// Default: 64KB
func WithReadBufferSize(n int) Option {
	return func(c *config) {
		c.readBufferSize = n
	}
}

// WithWriteBufferSize sets the size of the buffered writer wrapping the transport.
// Pipelined commands accumulate here until Flush.
//
// Default: 64KB
func WithWriteBufferSize(n int) Option {
	return func(c *config) {
		c.writeBufferSize = n
	}
}

// WithMaxLineLength sets the maximum allowed response line length in bytes.
// Longer lines return ErrLineTooLong.
//
// Default: 64KB
func WithMaxLineLength(n int) Option {
	return func(c *config) {
		c.maxLineLength = n
	}
}

// WithMaxBlockLength sets the maximum allowed block length in bytes.
// Larger blocks return ErrBlockTooLarge.
//
// This prevents memory exhaustion from a misbehaving server.
//
// Default: 256MB
func WithMaxBlockLength(n int) Option {
	return func(c *config) {
		c.maxBlockLength = n
	}
}

// WithLogger sets the logger used for trace output. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
