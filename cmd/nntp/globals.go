package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/config"
	"github.com/usenet-go/nntp/pkg/serverpool"
	"github.com/usenet-go/nntp/pkg/transport"
)

// Globals are the flags shared by every command.
type Globals struct {
	Verbose  int      `short:"v" type:"counter" help:"Log verbosity (-v info, -vv debug)"`
	Config   []string `short:"c" env:"NNTP_CONFIG" help:"Config files or glob patterns (YAML, JSON or CUE)"`
	Server   string   `short:"s" env:"NNTP_SERVER" help:"Server host[:port], overrides the config servers"`
	TLS      bool     `help:"Connect with TLS (port 563 by default)"`
	Insecure bool     `help:"Skip TLS certificate verification"`
	CACert   string   `name:"ca-cert" help:"PEM file with CA certificates to trust" type:"existingfile"`
	Compress bool     `help:"Negotiate XFEATURE COMPRESS GZIP when offered"`
	Raw      bool     `help:"Keep dot-stuffing in fetched blocks"`

	out io.Writer
}

// loadConfig merges config files with the command line flags.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if len(g.Config) > 0 {
		var err error
		if cfg, err = config.Load(g.Config...); err != nil {
			return nil, err
		}
	}

	if g.Server != "" {
		ep, err := transport.ParseEndpoint(g.Server, g.TLS || g.Insecure || g.CACert != "")
		if err != nil {
			return nil, err
		}
		cfg.Servers = []config.Server{{Host: ep.Host, Port: ep.Port, TLS: ep.TLS}}
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("no server: pass --server or --config")
	}

	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		if g.Insecure {
			s.Insecure = true
		}
		if g.CACert != "" {
			s.CACertFile = g.CACert
		}
		if s.TLSConfig().Enabled() {
			s.TLS = true
		}
	}
	cfg.Compress = cfg.Compress || g.Compress
	cfg.RawBlocks = cfg.RawBlocks || g.Raw
	return cfg, nil
}

// connect opens a session to the first available server.
func (g *Globals) connect(ctx context.Context, logger *slog.Logger) (*client.Client, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Debug("servers", "count", len(cfg.Servers), "compress", cfg.Compress)

	pool := serverpool.New(cfg.Servers,
		serverpool.NewConnector(cfg, client.WithLogger(logger)),
		serverpool.WithLogger(logger),
	)
	return pool.Connect(ctx)
}

// session runs fn on a fresh connection and quits afterwards.
func (g *Globals) session(logger *slog.Logger, fn func(c *client.Client) error) error {
	c, err := g.connect(context.Background(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Quit(); err != nil {
			logger.Debug("quit", "error", err)
		}
		logger.Info("session done", "stats", c.Stats())
	}()
	return fn(c)
}
