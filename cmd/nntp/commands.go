package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/response"
)

// CapsCLI prints the capability list.
type CapsCLI struct{}

func (c *CapsCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		set, err := nc.DiscoverCapabilities()
		if err != nil {
			return err
		}
		for _, line := range set.Strings() {
			fmt.Fprintln(g.out, line)
		}
		return nil
	})
}

// ListCLI prints a LIST reply.
type ListCLI struct {
	Keyword string   `arg:"" optional:"" help:"LIST keyword, e.g. ACTIVE or NEWSGROUPS"`
	Args    []string `arg:"" optional:"" help:"Keyword arguments, e.g. a wildmat"`
}

func (l *ListCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		args := append([]string{l.Keyword}, l.Args...)
		r, err := nc.List(args...)
		if err != nil {
			return err
		}
		for _, line := range r.Lines() {
			fmt.Fprintln(g.out, line)
		}
		return nil
	})
}

// GroupCLI prints the counts of a group.
type GroupCLI struct {
	Name string `arg:"" help:"Newsgroup name"`
}

func (gc *GroupCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		stats, err := selectGroup(nc, gc.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.out, "%s %d %d %d\n", stats.Name, stats.Count, stats.Low, stats.High)
		return nil
	})
}

func selectGroup(nc *client.Client, name string) (response.GroupStats, error) {
	r, err := nc.Group(name)
	if err != nil {
		return response.GroupStats{}, err
	}
	return r.GroupStats()
}

// HeadCLI prints the headers of several articles, fetched in one pipeline.
type HeadCLI struct {
	Group string   `arg:"" help:"Newsgroup name"`
	IDs   []string `arg:"" help:"Article numbers or message-ids"`
}

func (h *HeadCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		if _, err := nc.Group(h.Group); err != nil {
			return err
		}
		results, err := nc.HeadBatch(h.IDs)
		if err != nil {
			return err
		}
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(g.out)
			}
			if res.Err != nil {
				logger.Warn("head failed", "id", res.ID, "error", res.Err)
				continue
			}
			fmt.Fprintf(g.out, "# %s\n", res.ID)
			for _, hdr := range res.Response.Headers() {
				fmt.Fprintf(g.out, "%s: %s\n", hdr.Name, hdr.Unfolded())
			}
		}
		return nil
	})
}

// ArticleCLI prints an article.
type ArticleCLI struct {
	Group string `arg:"" help:"Newsgroup name"`
	ID    string `arg:"" help:"Article number or message-id"`
}

func (a *ArticleCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		if _, err := nc.Group(a.Group); err != nil {
			return err
		}
		r, err := nc.Article(a.ID)
		if err != nil {
			return err
		}
		return writeBlock(g, r.Block())
	})
}

// BodyCLI prints an article body.
type BodyCLI struct {
	Group string `arg:"" help:"Newsgroup name"`
	ID    string `arg:"" help:"Article number or message-id"`
}

func (b *BodyCLI) Run(logger *slog.Logger, g *Globals) error {
	return g.session(logger, func(nc *client.Client) error {
		if _, err := nc.Group(b.Group); err != nil {
			return err
		}
		r, err := nc.Body(b.ID)
		if err != nil {
			return err
		}
		return writeBlock(g, r.Body())
	})
}

// writeBlock prints block with local line endings.
func writeBlock(g *Globals, block []byte) error {
	text := strings.ReplaceAll(string(block), "\r\n", "\n")
	_, err := fmt.Fprintln(g.out, text)
	return err
}
