package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/usenet-go/nntp/pkg/client"
	"github.com/usenet-go/nntp/pkg/response"
)

// Triple braces: header values are not HTML.
const defaultFetchFormat = "{{number}}\t{{{message_id}}}\t{{{from}}}\t{{{subject}}}"

// FetchCLI walks a range of a group with pipelined HEAD requests and prints
// one templated line per article.
type FetchCLI struct {
	Group  string `arg:"" help:"Newsgroup name"`
	From   int64  `help:"First article number (default: group low water mark)"`
	To     int64  `help:"Last article number (default: group high water mark)"`
	Batch  int    `help:"HEAD requests per pipeline flush" default:"100"`
	Format string `help:"Mustache template for each line. Fields: number, message_id, subject, from, date, bytes, lines, and headers.<lowercase name>" default:"${fetch_format}"`
}

func (f *FetchCLI) Run(logger *slog.Logger, g *Globals) error {
	tmpl, err := mustache.ParseString(f.Format)
	if err != nil {
		return fmt.Errorf("invalid --format: %w", err)
	}
	if f.Batch <= 0 {
		return fmt.Errorf("--batch must be positive")
	}

	return g.session(logger, func(nc *client.Client) error {
		stats, err := selectGroup(nc, f.Group)
		if err != nil {
			return err
		}
		from, to := f.From, f.To
		if from == 0 {
			from = stats.Low
		}
		if to == 0 {
			to = stats.High
		}
		logger.Info("fetching", "group", f.Group, "from", from, "to", to)

		var missing int
		for start := from; start <= to; start += int64(f.Batch) {
			end := min(start+int64(f.Batch)-1, to)
			ids := make([]string, 0, end-start+1)
			for n := start; n <= end; n++ {
				ids = append(ids, client.Number(n))
			}

			results, err := nc.HeadBatch(ids)
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.Err != nil {
					missing++
					logger.Debug("skipping article", "id", res.ID, "error", res.Err)
					continue
				}
				line, err := tmpl.Render(articleFields(res.ID, res.Response))
				if err != nil {
					return err
				}
				fmt.Fprintln(g.out, line)
			}
		}
		if missing > 0 {
			logger.Info("articles not available", "count", missing)
		}
		return nil
	})
}

// articleFields is the template context of one HEAD reply.
func articleFields(id string, r *response.Response) map[string]any {
	hs := r.Headers()
	headers := make(map[string]string, len(hs))
	for _, h := range hs {
		name := strings.ToLower(string(h.Name))
		if _, ok := headers[name]; !ok {
			headers[name] = h.Unfolded()
		}
	}

	fields := map[string]any{
		"number":     id,
		"message_id": hs.Get("Message-ID"),
		"subject":    hs.Get("Subject"),
		"from":       hs.Get("From"),
		"date":       hs.Get("Date"),
		"bytes":      hs.Get("Bytes"),
		"lines":      hs.Get("Lines"),
		"headers":    headers,
	}
	if info, err := r.ArticleInfo(); err == nil {
		fields["number"] = info.Number
		if fields["message_id"] == "" {
			fields["message_id"] = info.MessageID
		}
	}
	return fields
}
