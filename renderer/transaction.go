package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/bookkeeper"
	md "github.com/nao1215/markdown"
)

// dateLayout is how dates appear in tables.
const dateLayout = "2006-01-02"

// Transaction renders a transaction to a one line description.
func Transaction(tx bookkeeper.Transaction, currency string) string {
	switch tx.Kind {
	case bookkeeper.Sale:
		return fmt.Sprintf("Sold %s to %s for %s", lines(tx.LineItems), tx.ContactName, tx.Amount.Format(currency))
	case bookkeeper.Purchase:
		return fmt.Sprintf("Bought %s from %s for %s", lines(tx.LineItems), tx.ContactName, tx.Amount.Format(currency))
	case bookkeeper.Expense:
		if tx.Category != "" {
			return fmt.Sprintf("Spent %s on %s", tx.Amount.Format(currency), tx.Category)
		}
		return fmt.Sprintf("Spent %s", tx.Amount.Format(currency))
	case bookkeeper.Capital:
		return fmt.Sprintf("Invested %s", tx.Amount.Format(currency))
	case bookkeeper.Settlement:
		if tx.ContactRole == bookkeeper.Supplier {
			return fmt.Sprintf("Paid %s to %s", tx.Amount.Format(currency), tx.ContactName)
		}
		return fmt.Sprintf("Received %s from %s", tx.Amount.Format(currency), tx.ContactName)
	default:
		return string(tx.Kind)
	}
}

// lines lists the quantities and items of line items.
func lines(items []bookkeeper.LineItem) string {
	parts := make([]string, len(items))
	for i, l := range items {
		unit := ""
		if l.Unit != "" {
			unit = " " + l.Unit
		}
		parts[i] = fmt.Sprintf("%s%s %s", l.Quantity, unit, l.Name)
	}
	return strings.Join(parts, ", ")
}

// TransactionsMarkdown renders the transaction log, in the order given.
func TransactionsMarkdown(txs []bookkeeper.Transaction, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Transactions")
	if len(txs) == 0 {
		doc.PlainText("No transactions recorded.")
		return doc.String()
	}
	doc.Table(transactionTable(txs, currency))
	return doc.String()
}

func transactionTable(txs []bookkeeper.Transaction, currency string) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
		Header:    []string{"Date", "Kind", "Description", "Amount", "Credit", "ID"},
	}
	for _, tx := range txs {
		credit := ""
		if !tx.CreditAmount.IsZero() {
			credit = tx.CreditAmount.Format(currency)
		}
		table.Rows = append(table.Rows, []string{
			tx.OccurredAt.Format(dateLayout),
			string(tx.Kind),
			Transaction(tx, currency),
			tx.Amount.Format(currency),
			credit,
			tx.ID,
		})
	}
	return table
}
