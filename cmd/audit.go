package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/google/subcommands"
)

// errInconsistent reports an audit that found discrepancies.
var errInconsistent = errors.New("stored balances or stock disagree with the transaction log")

type auditCmd struct {
	report reportFlags
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "check balances and stock against the transaction log" }
func (*auditCmd) Usage() string {
	return `bk audit [-json|-html|-plain|-q <path>]

  Recomputes every contact balance and item stock from the transactions and
  lists those that differ from the stored value. Exits with a failure status
  when there is any.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) { c.report.SetFlags(f) }

func (c *auditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		found := bookkeeper.Audit(snap)
		if found == nil {
			found = []bookkeeper.Discrepancy{}
		}
		if err := c.report.print(renderer.AuditMarkdown(found), found); err != nil {
			return err
		}
		if len(found) > 0 {
			for _, d := range found {
				b.log.Warn().Str("record", d.Record).Str("id", d.ID).Str("stored", d.Stored).Str("expected", d.Expected).Msg("discrepancy")
			}
			fmt.Fprintln(os.Stderr, len(found), "discrepancies")
			return errInconsistent
		}
		return nil
	})
}
