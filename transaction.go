package bookkeeper

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// ItemRef references the inventory item of a line: either an existing item
// by id, or an item known only by name that is looked up, and created if
// missing, inside the ledger unit applying the line.
type ItemRef struct {
	ID   string // set for an existing item
	Name string // set for a new item
	Unit string
}

// ExistingItem references a persisted item.
func ExistingItem(id string) ItemRef { return ItemRef{ID: id} }

// NewItem references an item by name, creating it on first use.
func NewItem(name, unit string) ItemRef {
	return ItemRef{Name: strings.TrimSpace(name), Unit: strings.TrimSpace(unit)}
}

// IsNew reports whether the reference still has to be resolved by name.
func (r ItemRef) IsNew() bool { return r.ID == "" }

func (r ItemRef) String() string {
	if r.IsNew() {
		return "new item " + r.Name
	}
	return "item " + r.ID
}

// ContactRef references the counterparty of a transaction, either an
// existing contact by id or a new one by name.
type ContactRef struct {
	ID    string
	Name  string
	Phone string
}

// ExistingContact references a persisted contact.
func ExistingContact(id string) ContactRef { return ContactRef{ID: id} }

// NewContact references a contact by name, creating it on first use with the
// role implied by the transaction kind.
func NewContact(name, phone string) ContactRef {
	return ContactRef{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)}
}

// IsZero reports whether no contact is referenced.
func (r ContactRef) IsZero() bool { return r.ID == "" && r.Name == "" }

// IsNew reports whether the reference still has to be resolved by name.
func (r ContactRef) IsNew() bool { return r.ID == "" && r.Name != "" }

// LineItem is one priced quantity of an item in a sale or a purchase.
type LineItem struct {
	ItemID    string   `json:"itemId,omitempty"`
	Name      string   `json:"name"`
	Unit      string   `json:"unit,omitempty"`
	Quantity  Quantity `json:"quantity"`
	UnitPrice Money    `json:"unitPrice"`

	// ref is the unresolved reference of a freshly built line. It is
	// replaced by ItemID when the line is applied.
	ref ItemRef
}

// Subtotal returns quantity × unit price.
func (l LineItem) Subtotal() Money { return l.UnitPrice.Mul(l.Quantity) }

// Ref returns the item reference of the line.
func (l LineItem) Ref() ItemRef {
	if l.ItemID != "" {
		return ExistingItem(l.ItemID)
	}
	if l.ref != (ItemRef{}) {
		return l.ref
	}
	return NewItem(l.Name, l.Unit)
}

// Transaction is one recorded financial event. A stored transaction is never
// modified in place: an edit reverses it and applies a replacement with the
// same ID.
type Transaction struct {
	ID          string
	Kind        Kind
	ContactID   string
	ContactName string // copy of the contact name at the time of the event
	ContactRole Role   // copy of the contact role, drives settlement signs
	LineItems   []LineItem
	Amount      Money
	// PaidAmount is the cash settled when the event happened.
	PaidAmount Money
	// CreditAmount is Amount - PaidAmount, the part left on the contact's account.
	CreditAmount Money
	OccurredAt   time.Time
	Description  string
	Category     string // meaningful for expenses only

	// contact is the unresolved contact reference of a freshly built transaction.
	contact ContactRef
}

// Contact returns the contact reference of the transaction.
func (t Transaction) Contact() ContactRef {
	if t.ContactID != "" {
		return ExistingContact(t.ContactID)
	}
	return t.contact
}

// Clone returns a deep copy of t.
func (t Transaction) Clone() Transaction {
	t.LineItems = slices.Clone(t.LineItems)
	return t
}

// Request returns a request that rebuilds t. Lines reference the stored
// items by id unless byName is set, in which case they reference them by
// name so that the request can be replayed in another dataset.
func (t Transaction) Request(byName bool) TransactionRequest {
	req := TransactionRequest{
		Kind:        t.Kind,
		OccurredAt:  t.OccurredAt,
		Description: t.Description,
		Category:    t.Category,
	}
	if t.ContactID != "" {
		req.Contact = ExistingContact(t.ContactID)
	}
	if t.Kind.HasLines() {
		paid := t.PaidAmount
		req.Paid = &paid
		for _, l := range t.LineItems {
			ref := ExistingItem(l.ItemID)
			if byName || l.ItemID == "" {
				ref = NewItem(l.Name, l.Unit)
			}
			req.Lines = append(req.Lines, LineRequest{Item: ref, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
		}
	} else {
		amount := t.Amount
		req.Amount = &amount
	}
	return req
}

// MarshalJSON writes the transaction with a stable field order.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	w.Append("kind", t.Kind)
	w.Append("date", t.OccurredAt.UTC().Format(time.RFC3339))
	w.Optional("contactId", t.ContactID)
	w.Optional("contactName", t.ContactName)
	w.Optional("contactRole", t.ContactRole)
	if len(t.LineItems) > 0 {
		w.Append("lines", t.LineItems)
	}
	w.Append("amount", t.Amount)
	w.Append("paid", t.PaidAmount)
	w.Append("credit", t.CreditAmount)
	w.Optional("description", t.Description)
	w.Optional("category", t.Category)
	return w.MarshalJSON()
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID          string     `json:"id"`
		Kind        Kind       `json:"kind"`
		Date        time.Time  `json:"date"`
		ContactID   string     `json:"contactId"`
		ContactName string     `json:"contactName"`
		ContactRole Role       `json:"contactRole"`
		Lines       []LineItem `json:"lines"`
		Amount      Money      `json:"amount"`
		Paid        Money      `json:"paid"`
		Credit      Money      `json:"credit"`
		Description string     `json:"description"`
		Category    string     `json:"category"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction{
		ID:           temp.ID,
		Kind:         temp.Kind,
		ContactID:    temp.ContactID,
		ContactName:  temp.ContactName,
		ContactRole:  temp.ContactRole,
		LineItems:    temp.Lines,
		Amount:       temp.Amount,
		PaidAmount:   temp.Paid,
		CreditAmount: temp.Credit,
		OccurredAt:   temp.Date,
		Description:  temp.Description,
		Category:     temp.Category,
	}
	return nil
}

// Contact is a customer or a supplier of the business.
type Contact struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	// Balance is positive when the contact owes the business (receivable)
	// and negative when the business owes the contact (payable). Only the
	// coordinator changes it.
	Balance   Money     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// InventoryItem is a stocked product.
type InventoryItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
	// Quantity is the running stock, only changed by the coordinator.
	Quantity Quantity `json:"quantity"`
	// LastPurchasePrice is the unit price of the latest purchase line applied.
	LastPurchasePrice Money `json:"lastPurchasePrice"`
}
