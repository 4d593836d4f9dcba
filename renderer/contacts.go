package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/bookkeeper"
	md "github.com/nao1215/markdown"
)

// balanceLabel says who owes whom.
func balanceLabel(b bookkeeper.Money, currency string) string {
	switch {
	case b.IsPositive():
		return b.Format(currency) + " receivable"
	case b.IsNegative():
		return b.Abs().Format(currency) + " payable"
	default:
		return "settled"
	}
}

// ContactsMarkdown renders the contacts with their balances, customers
// first.
func ContactsMarkdown(contacts []bookkeeper.Contact, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Contacts")
	for _, role := range []bookkeeper.Role{bookkeeper.Customer, bookkeeper.Supplier} {
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
			Header:    []string{"Name", "Phone", "Balance", "ID"},
		}
		for _, c := range contacts {
			if c.Role == role {
				table.Rows = append(table.Rows, []string{c.Name, c.Phone, balanceLabel(c.Balance, currency), c.ID})
			}
		}
		if len(table.Rows) == 0 {
			continue
		}
		if role == bookkeeper.Customer {
			doc.H2("Customers")
		} else {
			doc.H2("Suppliers")
		}
		doc.Table(table)
	}
	if len(contacts) == 0 {
		doc.PlainText("No contacts yet.")
	}
	return doc.String()
}

// StatementMarkdown renders the account of one contact.
func StatementMarkdown(st *bookkeeper.Statement, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	c := st.Contact

	doc.H1(fmt.Sprintf("Statement of %s", c.Name))
	rows := [][]string{{"Role", string(c.Role)}}
	if c.Phone != "" {
		rows = append(rows, []string{"Phone", c.Phone})
	}
	if c.Address != "" {
		rows = append(rows, []string{"Address", c.Address})
	}
	rows = append(rows,
		[]string{"Traded", st.Traded.Format(currency)},
		[]string{"Settled", st.Settled.Format(currency)},
	)
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Balance"), md.Bold(balanceLabel(c.Balance, currency))},
		Rows:      rows,
	})

	doc.H2("Transactions")
	if len(st.Transactions) == 0 {
		doc.PlainText("No transactions with this contact.")
		return doc.String()
	}
	doc.Table(transactionTable(st.Transactions, currency))
	return doc.String()
}
