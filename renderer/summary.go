package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/bookkeeper"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the dashboard of the business.
func SummaryMarkdown(s *bookkeeper.Summary, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Business Summary")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Cash"), md.Bold(s.Cash.Format(currency))},
		Rows: [][]string{
			{"Invested Capital", s.InvestedCapital.Format(currency)},
			{"Sales", s.TotalSales.Format(currency)},
			{"Purchases", s.TotalPurchases.Format(currency)},
			{"Expenses", s.TotalExpenses.Format(currency)},
			{"Receivable", s.TotalReceivable.Format(currency)},
			{"Payable", s.TotalPayable.Format(currency)},
		},
	})

	if len(s.ExpensesByCategory) > 0 {
		doc.H2("Expenses by Category")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
			Header:    []string{"Category", "Amount", "Share"},
		}
		for _, c := range s.Categories() {
			amount := s.ExpensesByCategory[c]
			table.Rows = append(table.Rows, []string{c, amount.Format(currency), share(amount, s.TotalExpenses)})
		}
		doc.Table(table)
	}
	return doc.String()
}

// share formats part as a percentage of total.
func share(part, total bookkeeper.Money) string {
	if total.IsZero() {
		return "-"
	}
	pct := part.Decimal().Div(total.Decimal()).Shift(2).Round(1)
	return fmt.Sprintf("%s%%", pct.StringFixed(1))
}
