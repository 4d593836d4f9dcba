package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/bookkeeper"
	"github.com/google/subcommands"
)

// entryCmd records an expense or a capital injection.
type entryCmd struct {
	kind     bookkeeper.Kind
	date     string
	amount   moneyFlag
	category string
	memo     string
}

func (c *entryCmd) Name() string { return string(c.kind) }
func (c *entryCmd) Synopsis() string {
	if c.kind == bookkeeper.Expense {
		return "record money spent on running the business"
	}
	return "record money invested in the business by its owner"
}
func (c *entryCmd) Usage() string {
	if c.kind == bookkeeper.Expense {
		return `bk expense -a <amount> [-cat <category>] [-d <date>] [-m <memo>]

  Records an expense, paid in full. The amount is debited from the cash.

Usage Examples:
$ bk expense -a 30 -cat rent
`
	}
	return `bk capital -a <amount> [-d <date>] [-m <memo>]

  Records a capital injection. The amount is credited to the cash.
`
}

func (c *entryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD, today, yesterday, -<n>d). Defaults to now.")
	f.Var(&c.amount, "a", "Amount")
	if c.kind == bookkeeper.Expense {
		f.StringVar(&c.category, "cat", "", "Expense category, e.g. rent or transport")
	}
	f.StringVar(&c.memo, "m", "", "An optional description")
}

func (c *entryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount.value == nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := parseDate(c.date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withBooks(ctx, func(b *books) error {
		return create(ctx, b, bookkeeper.TransactionRequest{
			Kind:        c.kind,
			Amount:      c.amount.value,
			OccurredAt:  day,
			Description: c.memo,
			Category:    c.category,
		})
	})
}
