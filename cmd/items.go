package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/google/subcommands"
)

type itemsCmd struct {
	report reportFlags
}

func (*itemsCmd) Name() string     { return "items" }
func (*itemsCmd) Synopsis() string { return "list the inventory with its stock" }
func (*itemsCmd) Usage() string {
	return `bk items [-json|-html|-plain|-q <path>]

  Lists the inventory items, their stock and its value at the last purchase
  price. Negative stock, from selling more than was bought, is highlighted.
`
}

func (c *itemsCmd) SetFlags(f *flag.FlagSet) { c.report.SetFlags(f) }

func (c *itemsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		items := snap.Items
		if items == nil {
			items = []bookkeeper.InventoryItem{}
		}
		return c.report.print(renderer.ItemsMarkdown(items, b.cfg.Currency), items)
	})
}

type addItemCmd struct {
	name  string
	unit  string
	price moneyFlag
}

func (*addItemCmd) Name() string     { return "add-item" }
func (*addItemCmd) Synopsis() string { return "add an item to the inventory" }
func (*addItemCmd) Usage() string {
	return `bk add-item -name <name> [-unit <unit>] [-p <price>]

  Adds an item with an empty stock. Purchases of unknown items add them too.
`
}

func (c *addItemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the item")
	f.StringVar(&c.unit, "unit", "", "Unit the item is counted in, e.g. bag or kg")
	f.Var(&c.price, "p", "Known purchase price")
}

func (c *addItemCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	price := bookkeeper.M(0)
	if c.price.value != nil {
		price = *c.price.value
	}
	return withBooks(ctx, func(b *books) error {
		item, err := b.AddItem(ctx, c.name, c.unit, price)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added item %s (%s)\n", item.Name, item.ID)
		return nil
	})
}
