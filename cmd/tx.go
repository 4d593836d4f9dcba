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

type txCmd struct {
	kind    string
	contact string
	start   string
	date    string
	head    int
	tail    int
	report  reportFlags
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the recorded transactions" }
func (*txCmd) Usage() string {
	return `bk tx [-kind <kind>] [-c <contact>] [-s <start_date>] [-d <end_date>] [-head <n>] [-tail <n>] [-json|-html|-plain|-q <path>]

  Lists transactions in chronological order, with options for filtering and limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.kind, "kind", "", "Only list transactions of this kind.")
	f.StringVar(&p.contact, "c", "", "Only list transactions with this contact, by name or #<id>.")
	f.StringVar(&p.start, "s", "", "The first day of the range.")
	f.StringVar(&p.date, "d", "", "The last day of the range.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
	p.report.SetFlags(f)
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	if p.kind != "" {
		if _, err := bookkeeper.ParseKind(p.kind); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	now := time.Now()
	var from, to time.Time
	var err error
	if p.start != "" {
		if from, err = parseDate(p.start, now); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if p.date != "" {
		if to, err = parseDate(p.date, now); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
		// the end day is included
		to = to.AddDate(0, 0, 1)
	}

	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		var contactID string
		if p.contact != "" {
			c, err := findContact(snap, p.contact, "")
			if err != nil {
				return err
			}
			contactID = c.ID
		}

		var transactions []bookkeeper.Transaction
		for _, tx := range snap.Transactions {
			switch {
			case p.kind != "" && string(tx.Kind) != p.kind,
				contactID != "" && tx.ContactID != contactID,
				!from.IsZero() && tx.OccurredAt.Before(from),
				!to.IsZero() && !tx.OccurredAt.Before(to):
				continue
			}
			transactions = append(transactions, tx)
		}

		if p.head > 0 && len(transactions) > p.head {
			transactions = transactions[:p.head]
		}
		if p.tail > 0 && len(transactions) > p.tail {
			transactions = transactions[len(transactions)-p.tail:]
		}
		if transactions == nil {
			transactions = []bookkeeper.Transaction{}
		}
		return p.report.print(renderer.TransactionsMarkdown(transactions, b.cfg.Currency), transactions)
	})
}
