package cmd

import (
	"context"
	"flag"
	"time"

	"github.com/etnz/bookkeeper/api"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr  string
	every time.Duration
	burst int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the books as a JSON HTTP API" }
func (*serveCmd) Usage() string {
	return `bk serve [-addr <host:port>] [-rate <interval>] [-burst <n>]

  Serves the books over HTTP for a presentation layer. Creating a transaction
  with an Idempotency-Key header returns the first result for 24 hours.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "localhost:8080", "Address to listen on")
	f.DurationVar(&c.every, "rate", 100*time.Millisecond, "Minimum interval between requests, on average")
	f.IntVar(&c.burst, "burst", 30, "Number of requests allowed in a burst")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withBooks(ctx, func(b *books) error {
		srv := api.New(b.Coordinator,
			api.WithLogger(b.log),
			api.WithCurrency(b.cfg.Currency),
			api.WithRateLimit(c.every, c.burst),
		)
		return srv.ListenAndServe(c.addr)
	})
}
