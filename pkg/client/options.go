package client

import (
	"log/slog"

	"github.com/usenet-go/nntp/pkg/stream"
)

// Option configures a Client.
type Option interface {
	apply(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) {
	f(c)
}

// WithLogger sets the logger used for command tracing. The stream logs
// through it too.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Client) {
		c.log = l
	})
}

// WithRawBlocks returns blocks exactly as framed, without removing the
// escape dot from lines starting with "..".
func WithRawBlocks() Option {
	return optionFunc(func(c *Client) {
		c.raw = true
	})
}

// WithStreamOptions passes options through to the underlying stream.
func WithStreamOptions(opts ...stream.Option) Option {
	return optionFunc(func(c *Client) {
		c.streamOpts = append(c.streamOpts, opts...)
	})
}
