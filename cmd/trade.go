package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/google/subcommands"
)

// tradeCmd records a sale or a purchase.
type tradeCmd struct {
	kind    bookkeeper.Kind
	date    string
	contact string
	phone   string
	lines   lineList
	paid    moneyFlag
	memo    string
}

func (c *tradeCmd) Name() string { return string(c.kind) }
func (c *tradeCmd) Synopsis() string {
	if c.kind == bookkeeper.Sale {
		return "record a sale of goods to a customer"
	}
	return "record a purchase of goods from a supplier"
}
func (c *tradeCmd) Usage() string {
	if c.kind == bookkeeper.Sale {
		return `bk sale -c <customer> -l <item>=<qty>@<price> [-l ...] [-paid <amount>] [-d <date>] [-m <memo>]

  Records a sale. Each line decreases the stock of its item. The part of the
  amount not paid is added to what the customer owes.

Usage Examples:
$ bk sale -c Ama -l Rice/bag=2@12.5 -l Salt=1@3 -paid 20
`
	}
	return `bk purchase -c <supplier> -l <item>=<qty>@<price> [-l ...] [-paid <amount>] [-d <date>] [-m <memo>]

  Records a purchase. Each line increases the stock of its item and sets its
  last purchase price. The part of the amount not paid is added to what is
  owed to the supplier. Unknown items and suppliers are created.

Usage Examples:
$ bk purchase -c Mill -l Rice/bag=10@5
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD, today, yesterday, -<n>d). Defaults to now.")
	f.StringVar(&c.contact, "c", "", "Contact name, or #<id>. Unknown names create a new contact.")
	f.StringVar(&c.phone, "phone", "", "Phone of a new contact.")
	f.Var(&c.lines, "l", "Line item as name[/unit]=qty@price or #<item id>=qty@price. Repeatable.")
	f.Var(&c.paid, "paid", "Amount paid at the time of the transaction. Defaults to 0.")
	f.StringVar(&c.memo, "m", "", "An optional description")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" || len(c.lines) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
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
		contact, err := resolveContact(snap, c.kind, c.contact, c.phone)
		if err != nil {
			return err
		}
		req := bookkeeper.TransactionRequest{
			Kind:        c.kind,
			Contact:     contact,
			Lines:       resolveLines(snap, c.lines),
			Paid:        c.paid.value,
			OccurredAt:  day,
			Description: c.memo,
		}
		return create(ctx, b, req)
	})
}

// create records req and prints what was recorded.
func create(ctx context.Context, b *books, req bookkeeper.TransactionRequest) error {
	id, err := b.Create(ctx, req)
	if err != nil {
		return err
	}
	return printRecorded(ctx, b, id)
}

// printRecorded prints the one line description of the transaction id.
func printRecorded(ctx context.Context, b *books, id string) error {
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return err
	}
	tx, found := snap.Transaction(id)
	if !found {
		return bookkeeper.NotFoundError("transaction %s", id)
	}
	fmt.Fprintf(out, "%s (%s)\n", renderer.Transaction(tx, b.cfg.Currency), tx.ID)
	return nil
}
