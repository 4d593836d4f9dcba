package bookkeeper

import "fmt"

// Kind identifies the financial event a transaction records.
type Kind string

// Transaction kinds.
const (
	Sale       Kind = "sale"
	Purchase   Kind = "purchase"
	Expense    Kind = "expense"
	Capital    Kind = "capital"
	Settlement Kind = "settlement"
)

// Kinds lists every transaction kind in presentation order.
var Kinds = []Kind{Sale, Purchase, Expense, Capital, Settlement}

// ParseKind parses a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Sale, Purchase, Expense, Capital, Settlement:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// HasLines reports whether transactions of this kind carry line items.
func (k Kind) HasLines() bool { return k == Sale || k == Purchase }

// NeedsContact reports whether transactions of this kind reference a contact.
func (k Kind) NeedsContact() bool { return k == Sale || k == Purchase || k == Settlement }

// Role is the relationship a contact has with the business.
type Role string

const (
	Customer Role = "customer"
	Supplier Role = "supplier"
)

// ParseRole parses a string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case Customer, Supplier:
		return r, nil
	default:
		return "", fmt.Errorf("unknown contact role: %q", s)
	}
}

// roleFor returns the role of a contact created implicitly by a transaction
// of kind k. Only sales and purchases can introduce a contact.
func roleFor(k Kind) (Role, bool) {
	switch k {
	case Sale:
		return Customer, true
	case Purchase:
		return Supplier, true
	default:
		return "", false
	}
}
