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

// editCmd replaces a transaction with an amended copy. Flags that are not
// set keep the stored value.
type editCmd struct {
	id       string
	kind     string
	date     string
	contact  string
	phone    string
	lines    lineList
	paid     moneyFlag
	amount   moneyFlag
	category string
	memo     string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "amend a recorded transaction" }
func (*editCmd) Usage() string {
	return `bk edit -id <transaction id> [-kind <kind>] [-c <contact>] [-l <line> ...] [-paid <amount>] [-a <amount>] [-cat <category>] [-d <date>] [-m <memo>]

  Amends a transaction. Its effects on balances and stock are reversed and
  the amended transaction is applied in their place, as one change.
  Lines given with -l replace all the stored lines.

Usage Examples:
$ bk edit -id 3f1c... -l Rice/bag=6@5
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the transaction to amend")
	f.StringVar(&c.kind, "kind", "", "New kind of the transaction")
	f.StringVar(&c.date, "d", "", "New date (YYYY-MM-DD, today, yesterday, -<n>d)")
	f.StringVar(&c.contact, "c", "", "New contact name, or #<id>")
	f.StringVar(&c.phone, "phone", "", "Phone of a new contact.")
	f.Var(&c.lines, "l", "Line item as name[/unit]=qty@price or #<item id>=qty@price. Repeatable.")
	f.Var(&c.paid, "paid", "New amount paid")
	f.Var(&c.amount, "a", "New amount of an expense, capital or settlement")
	f.StringVar(&c.category, "cat", "", "New expense category")
	f.StringVar(&c.memo, "m", "", "New description")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	var day time.Time
	if set["d"] {
		var err error
		if day, err = parseDate(c.date, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		stored, found := snap.Transaction(c.id)
		if !found {
			return bookkeeper.NotFoundError("transaction %s", c.id)
		}
		req := stored.Request(false)
		if set["kind"] {
			if req.Kind, err = bookkeeper.ParseKind(c.kind); err != nil {
				return err
			}
			// drop what the new kind cannot carry
			if !req.Kind.NeedsContact() {
				req.Contact = bookkeeper.ContactRef{}
			}
			if !req.Kind.HasLines() {
				req.Lines, req.Paid = nil, nil
			}
		}
		if set["d"] {
			req.OccurredAt = day
		}
		if set["c"] {
			if req.Kind == bookkeeper.Settlement {
				contact, err := findContact(snap, c.contact, "")
				if err != nil {
					return err
				}
				req.Contact = bookkeeper.ExistingContact(contact.ID)
			} else if req.Contact, err = resolveContact(snap, req.Kind, c.contact, c.phone); err != nil {
				return err
			}
		}
		if set["l"] {
			req.Lines = resolveLines(snap, c.lines)
		}
		if set["paid"] {
			req.Paid = c.paid.value
		}
		if set["a"] {
			req.Amount = c.amount.value
		}
		if set["cat"] {
			req.Category = c.category
		}
		if set["m"] {
			req.Description = c.memo
		}
		if err := b.Edit(ctx, c.id, req); err != nil {
			return err
		}
		return printRecorded(ctx, b, c.id)
	})
}
