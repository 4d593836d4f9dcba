package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/bookkeeper"
	"github.com/google/subcommands"
)

// --- Export Command ---

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the transaction log as JSONL" }
func (*exportCmd) Usage() string {
	return `bk export [-o <file>]

  Writes every transaction, in chronological order, one JSON object per line.
  The output can be replayed into other books with 'bk import'.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to the standard output.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		var w io.Writer = out
		if c.output != "" {
			file, err := os.Create(c.output)
			if err != nil {
				return err
			}
			defer file.Close()
			w = file
		}
		if err := bookkeeper.EncodeTransactions(w, snap.Transactions); err != nil {
			return fmt.Errorf("cannot export transactions: %w", err)
		}
		b.log.Info().Int("count", len(snap.Transactions)).Msg("transactions exported")
		return nil
	})
}

// --- Import Command ---

type importCmd struct {
	input string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replay a JSONL transaction log into the books" }
func (*importCmd) Usage() string {
	return `bk import [-i <file>]

  Reads transactions written by 'bk export' and records them one by one.
  Contacts and items are matched by name, and created when unknown.
  Importing stops at the first transaction that cannot be recorded.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.input, "i", "", "Input file. Defaults to the standard input.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var r io.Reader = os.Stdin
	if c.input != "" {
		file, err := os.Open(c.input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}
	txs, err := bookkeeper.DecodeTransactions(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return withBooks(ctx, func(b *books) error {
		n, err := b.Import(ctx, txs)
		fmt.Fprintf(out, "Imported %d of %d transactions\n", n, len(txs))
		return err
	})
}
