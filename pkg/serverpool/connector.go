package serverpool

import (
	"context"
	"errors"
	"fmt"

	"github.com/usenet-go/nntp/pkg/capabilities"
	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/config"
	"github.com/usenet-go/nntp/pkg/stream"
	"github.com/usenet-go/nntp/pkg/tlsconfig"
	"github.com/usenet-go/nntp/pkg/transport"
)

// NewConnector returns a Connector that follows cfg: it dials with the
// configured timeout and TLS settings, reads the greeting, authenticates
// when credentials are set in the environment, and negotiates compression
// when cfg.Compress is set and the server offers it.
func NewConnector(cfg *config.Config, opts ...client.Option) Connector {
	return func(ctx context.Context, s config.Server) (*client.Client, error) {
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		d := &transport.Dialer{Timeout: timeout}
		if s.TLS {
			d.TLSConfig, err = tlsconfig.NewClientConfig(s.TLSConfig())
			if err != nil {
				return nil, err
			}
		}

		copts := append([]client.Option(nil), opts...)
		if cfg.RawBlocks {
			copts = append(copts, client.WithRawBlocks())
		}
		if cfg.MaxBlockBytes > 0 {
			copts = append(copts, client.WithStreamOptions(stream.WithMaxBlockLength(cfg.MaxBlockBytes)))
		}

		c, err := client.DialEndpoint(ctx, d, s.Endpoint(), copts...)
		if err != nil {
			return nil, err
		}
		if err := setup(c, cfg); err != nil {
			c.Close()
			return nil, err
		}
		return c, nil
	}
}

func setup(c *client.Client, cfg *config.Config) error {
	if user, pass, ok := cfg.Credentials(); ok {
		if err := c.Authenticate(user, pass); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
	}
	if !cfg.Compress {
		return nil
	}

	if _, err := c.DiscoverCapabilities(); err != nil {
		// Servers without CAPABILITIES just don't get compression.
		if _, ok := client.StatusCode(err); ok {
			return nil
		}
		return err
	}
	if !c.Can(capabilities.WithCompression(capabilities.GZIP)) {
		return nil
	}
	if err := c.EnableCompression(); err != nil && !errors.Is(err, client.ErrNotSupported) {
		if _, ok := client.StatusCode(err); !ok {
			return err
		}
	}
	return nil
}
