package renderer

import (
	"bytes"

	"github.com/etnz/bookkeeper"
	md "github.com/nao1215/markdown"
)

// ItemsMarkdown renders the inventory with the stock valued at the last
// purchase price.
func ItemsMarkdown(items []bookkeeper.InventoryItem, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Inventory")
	if len(items) == 0 {
		doc.PlainText("No items yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Item", "Stock", "Unit", "Last Price", "Value"},
	}
	total := bookkeeper.M(0)
	for _, i := range items {
		value := i.LastPurchasePrice.Mul(i.Quantity)
		total = total.Add(value)
		stock := i.Quantity.String()
		if i.Quantity.IsNegative() {
			stock = md.Bold(stock)
		}
		table.Rows = append(table.Rows, []string{i.Name, stock, i.Unit, i.LastPurchasePrice.Format(currency), value.Format(currency)})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", "", md.Bold(total.Format(currency))})
	doc.Table(table)
	return doc.String()
}

// AuditMarkdown renders the result of an audit.
func AuditMarkdown(found []bookkeeper.Discrepancy) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Audit")
	if len(found) == 0 {
		doc.PlainText("Balances and stock match the transaction log.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
		Header:    []string{"Record", "Name", "Stored", "Expected", "ID"},
	}
	for _, d := range found {
		table.Rows = append(table.Rows, []string{d.Record, d.Name, d.Stored, d.Expected, d.ID})
	}
	doc.Table(table)
	return doc.String()
}
