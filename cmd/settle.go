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

type settleCmd struct {
	date    string
	contact string
	role    string
	amount  moneyFlag
	memo    string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "record a payment received from a customer or made to a supplier" }
func (*settleCmd) Usage() string {
	return `bk settle -c <contact> -a <amount> [-role customer|supplier] [-d <date>] [-m <memo>]

  Records a settlement with a known contact. Money received from a customer
  reduces what they owe; money paid to a supplier reduces what is owed to them.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD, today, yesterday, -<n>d). Defaults to now.")
	f.StringVar(&c.contact, "c", "", "Contact name, or #<id>")
	f.StringVar(&c.role, "role", "", "Role of the contact, when the name is both a customer and a supplier")
	f.Var(&c.amount, "a", "Amount settled")
	f.StringVar(&c.memo, "m", "", "An optional description")
}

func (c *settleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" || c.amount.value == nil {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var role bookkeeper.Role
	if c.role != "" {
		r, err := bookkeeper.ParseRole(c.role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		role = r
	}
	day, err := parseDate(c.date, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		contact, err := findContact(snap, c.contact, role)
		if err != nil {
			return err
		}
		return create(ctx, b, bookkeeper.TransactionRequest{
			Kind:        bookkeeper.Settlement,
			Contact:     bookkeeper.ExistingContact(contact.ID),
			Amount:      c.amount.value,
			OccurredAt:  day,
			Description: c.memo,
		})
	})
}
