package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
)

// CLI is the nntp command tree.
type CLI struct {
	Globals

	Caps    CapsCLI    `cmd:"" help:"Show the server's capabilities"`
	List    ListCLI    `cmd:"" help:"Run LIST (active groups by default)"`
	Group   GroupCLI   `cmd:"" help:"Select a group and show its article counts"`
	Head    HeadCLI    `cmd:"" help:"Fetch article headers, pipelined"`
	Article ArticleCLI `cmd:"" help:"Fetch a whole article"`
	Body    BodyCLI    `cmd:"" help:"Fetch an article body"`
	Fetch   FetchCLI   `cmd:"" help:"Fetch headers for a range of articles and print one line each"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("nntp"),
		kong.Description("Read news from an NNTP server."),
		kong.UsageOnError(),
		kong.Vars{"fetch_format": defaultFetchFormat},
	}, options...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	cli.out = os.Stdout

	logger := newLogger(os.Stderr, cli.Verbose)
	err = ctx.Run(logger, &cli.Globals)
	ctx.FatalIfErrorf(err)
}

// newLogger maps -v counts to levels: 0 warn, 1 info, 2+ debug.
func newLogger(w io.Writer, verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}
