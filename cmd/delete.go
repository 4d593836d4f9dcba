package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete recorded transactions" }
func (*deleteCmd) Usage() string {
	return `bk delete <transaction id> [<transaction id> ...]

  Deletes transactions. Their effects on balances and stock are reversed.
  The last purchase price of items is left unchanged.
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withBooks(ctx, func(b *books) error {
		for _, id := range f.Args() {
			if err := b.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted transaction %s\n", id)
		}
		return nil
	})
}
