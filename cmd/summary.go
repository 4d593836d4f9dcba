package cmd

import (
	"context"
	"flag"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	report reportFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the cash and totals of the business" }
func (*summaryCmd) Usage() string {
	return `bk summary [-json|-html|-plain|-q <path>]

  Displays the dashboard of the business: cash on hand, invested capital,
  sales, purchases, expenses by category and what is receivable and payable.

Usage Examples:
$ bk summary -q '$.cash'
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.report.SetFlags(f) }

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		s := bookkeeper.Summarize(snap.Transactions, snap.Contacts)
		return c.report.print(renderer.SummaryMarkdown(&s, b.cfg.Currency), s)
	})
}
