package bookkeeper

import (
	"slices"
)

// Summary is the dashboard view of the business. It is never stored: it is
// recomputed from the current collections every time it is needed.
type Summary struct {
	Cash            Money `json:"cash"`
	InvestedCapital Money `json:"investedCapital"`
	TotalSales      Money `json:"totalSales"`
	TotalPurchases  Money `json:"totalPurchases"`
	TotalExpenses   Money `json:"totalExpenses"`
	// TotalReceivable sums the positive contact balances.
	TotalReceivable Money `json:"totalReceivable"`
	// TotalPayable sums the magnitude of the negative contact balances.
	TotalPayable       Money            `json:"totalPayable"`
	ExpensesByCategory map[string]Money `json:"expensesByCategory"`
}

// Categories returns the expense categories in alphabetical order.
func (s Summary) Categories() []string {
	categories := make([]string, 0, len(s.ExpensesByCategory))
	for c := range s.ExpensesByCategory {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	return categories
}

// Summarize folds the transactions and contacts into a Summary.
//
// Settlements move cash in from customers and out to suppliers; the role is
// taken from the contacts, or from the copy kept on the transaction when the
// contact is not in the list.
func Summarize(transactions []Transaction, contacts []Contact) Summary {
	s := Summary{
		Cash:               M(0),
		InvestedCapital:    M(0),
		TotalSales:         M(0),
		TotalPurchases:     M(0),
		TotalExpenses:      M(0),
		TotalReceivable:    M(0),
		TotalPayable:       M(0),
		ExpensesByCategory: make(map[string]Money),
	}

	roles := make(map[string]Role, len(contacts))
	for _, c := range contacts {
		roles[c.ID] = c.Role
		switch {
		case c.Balance.IsPositive():
			s.TotalReceivable = s.TotalReceivable.Add(c.Balance)
		case c.Balance.IsNegative():
			s.TotalPayable = s.TotalPayable.Add(c.Balance.Neg())
		}
	}

	for _, t := range transactions {
		switch t.Kind {
		case Sale:
			s.Cash = s.Cash.Add(t.PaidAmount)
			s.TotalSales = s.TotalSales.Add(t.Amount)
		case Purchase:
			s.Cash = s.Cash.Sub(t.PaidAmount)
			s.TotalPurchases = s.TotalPurchases.Add(t.Amount)
		case Expense:
			s.Cash = s.Cash.Sub(t.Amount)
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
			category := t.Category
			if category == "" {
				category = "other"
			}
			s.ExpensesByCategory[category] = s.ExpensesByCategory[category].Add(t.Amount)
		case Capital:
			s.Cash = s.Cash.Add(t.Amount)
			s.InvestedCapital = s.InvestedCapital.Add(t.Amount)
		case Settlement:
			role, ok := roles[t.ContactID]
			if !ok {
				role = t.ContactRole
			}
			switch role {
			case Customer:
				s.Cash = s.Cash.Add(t.Amount)
			case Supplier:
				s.Cash = s.Cash.Sub(t.Amount)
			}
		}
	}
	return s
}

// Statement is the account of one contact: its transactions, newest first,
// and the volume traded with it.
type Statement struct {
	Contact      Contact       `json:"contact"`
	Transactions []Transaction `json:"transactions"`
	// Traded sums the amounts of the sales and purchases with the contact.
	Traded Money `json:"traded"`
	// Settled sums the settlements with the contact.
	Settled Money `json:"settled"`
}

// NewStatement extracts the statement of contact from the transactions.
func NewStatement(transactions []Transaction, contact Contact) Statement {
	st := Statement{Contact: contact, Traded: M(0), Settled: M(0)}
	for _, t := range transactions {
		if t.ContactID != contact.ID {
			continue
		}
		st.Transactions = append(st.Transactions, t)
		switch t.Kind {
		case Sale, Purchase:
			st.Traded = st.Traded.Add(t.Amount)
		case Settlement:
			st.Settled = st.Settled.Add(t.Amount)
		}
	}
	slices.SortStableFunc(st.Transactions, func(a, b Transaction) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	return st
}
