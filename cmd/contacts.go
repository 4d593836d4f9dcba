package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/renderer"
	"github.com/google/subcommands"
)

// --- Contacts Command ---

type contactsCmd struct {
	role   string
	report reportFlags
}

func (*contactsCmd) Name() string     { return "contacts" }
func (*contactsCmd) Synopsis() string { return "list customers and suppliers with their balances" }
func (*contactsCmd) Usage() string {
	return `bk contacts [-role customer|supplier] [-json|-html|-plain|-q <path>]

  Lists contacts. A positive balance is owed by the contact, a negative one
  is owed to them.
`
}

func (c *contactsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.role, "role", "", "Only list contacts with this role.")
	c.report.SetFlags(f)
}

func (c *contactsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var role bookkeeper.Role
	if c.role != "" {
		r, err := bookkeeper.ParseRole(c.role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		role = r
	}
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		contacts := []bookkeeper.Contact{}
		for _, ct := range snap.Contacts {
			if role == "" || ct.Role == role {
				contacts = append(contacts, ct)
			}
		}
		return c.report.print(renderer.ContactsMarkdown(contacts, b.cfg.Currency), contacts)
	})
}

// --- Add Contact Command ---

type addContactCmd struct {
	role    string
	name    string
	phone   string
	address string
}

func (*addContactCmd) Name() string     { return "add-contact" }
func (*addContactCmd) Synopsis() string { return "add a customer or a supplier" }
func (*addContactCmd) Usage() string {
	return `bk add-contact -role customer|supplier -name <name> [-phone <phone>] [-address <address>]

  Adds a contact with a zero balance. Names are unique per role.
`
}

func (c *addContactCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.role, "role", "", "customer or supplier")
	f.StringVar(&c.name, "name", "", "Name of the contact")
	f.StringVar(&c.phone, "phone", "", "Phone number")
	f.StringVar(&c.address, "address", "", "Postal address")
}

func (c *addContactCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.role == "" || c.name == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withBooks(ctx, func(b *books) error {
		ct, err := b.AddContact(ctx, bookkeeper.Role(c.role), c.name, c.phone, c.address)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %s %s (%s)\n", ct.Role, ct.Name, ct.ID)
		return nil
	})
}

// --- Edit Contact Command ---

type editContactCmd struct {
	contact string
	role    string
	name    string
	phone   string
	address string
}

func (*editContactCmd) Name() string     { return "edit-contact" }
func (*editContactCmd) Synopsis() string { return "change the name, phone or address of a contact" }
func (*editContactCmd) Usage() string {
	return `bk edit-contact -c <contact> [-role customer|supplier] [-name <name>] [-phone <phone>] [-address <address>]

  Changes the details of a contact. Its role and balance cannot be changed.
`
}

func (c *editContactCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.contact, "c", "", "Contact name, or #<id>")
	f.StringVar(&c.role, "role", "", "Role of the contact, when the name is both a customer and a supplier")
	f.StringVar(&c.name, "name", "", "New name")
	f.StringVar(&c.phone, "phone", "", "New phone number")
	f.StringVar(&c.address, "address", "", "New postal address")
}

func (c *editContactCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		ct, err := findContact(snap, c.contact, bookkeeper.Role(c.role))
		if err != nil {
			return err
		}
		name, phone, address := ct.Name, ct.Phone, ct.Address
		if set["name"] {
			name = c.name
		}
		if set["phone"] {
			phone = c.phone
		}
		if set["address"] {
			address = c.address
		}
		updated, err := b.UpdateContact(ctx, ct.ID, name, phone, address)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s %s (%s)\n", updated.Role, updated.Name, updated.ID)
		return nil
	})
}

// --- Statement Command ---

type statementCmd struct {
	contact string
	role    string
	report  reportFlags
}

func (*statementCmd) Name() string     { return "statement" }
func (*statementCmd) Synopsis() string { return "display the account of a contact" }
func (*statementCmd) Usage() string {
	return `bk statement -c <contact> [-role customer|supplier] [-json|-html|-plain|-q <path>]

  Displays the details of a contact, its balance and its transactions,
  newest first.
`
}

func (c *statementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.contact, "c", "", "Contact name, or #<id>")
	f.StringVar(&c.role, "role", "", "Role of the contact, when the name is both a customer and a supplier")
	c.report.SetFlags(f)
}

func (c *statementCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.contact == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return withBooks(ctx, func(b *books) error {
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		ct, err := findContact(snap, c.contact, bookkeeper.Role(c.role))
		if err != nil {
			return err
		}
		st := bookkeeper.NewStatement(snap.Transactions, ct)
		return c.report.print(renderer.StatementMarkdown(&st, b.cfg.Currency), st)
	})
}
