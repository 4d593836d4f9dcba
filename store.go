package bookkeeper

import (
	"context"
	"slices"
	"strings"
)

// Store is the atomic multi-record read-modify-write primitive the
// coordinator runs on.
type Store interface {
	// Update runs fn as one atomic unit. Every record read through the Tx is
	// checked at commit: if any changed since it was read, nothing is written
	// and Update returns an error matching ErrConflict. If fn returns an
	// error nothing is written and that error is returned unchanged.
	Update(ctx context.Context, fn func(Tx) error) error

	// Snapshot returns a consistent read-only copy of every collection.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Tx is the view of the store inside one Update. Reads observe the unit's
// own writes. Lookups of missing records return an error matching
// ErrNotFound.
type Tx interface {
	Transaction(id string) (Transaction, error)
	PutTransaction(t Transaction) error
	DeleteTransaction(id string) error

	Contact(id string) (Contact, error)
	// ContactByName finds a contact by role and exact name.
	ContactByName(role Role, name string) (Contact, error)
	PutContact(c Contact) error

	Item(id string) (InventoryItem, error)
	// ItemByName finds an item by exact name.
	ItemByName(name string) (InventoryItem, error)
	PutItem(i InventoryItem) error
}

// Snapshot is a read-only copy of the three collections, as consumed by the
// presentation layer and the summary.
type Snapshot struct {
	Transactions []Transaction   // chronological
	Contacts     []Contact       // by name
	Items        []InventoryItem // by name
}

// Contact returns the contact with the given id.
func (s *Snapshot) Contact(id string) (Contact, bool) {
	i := slices.IndexFunc(s.Contacts, func(c Contact) bool { return c.ID == id })
	if i < 0 {
		return Contact{}, false
	}
	return s.Contacts[i], true
}

// Transaction returns the transaction with the given id.
func (s *Snapshot) Transaction(id string) (Transaction, bool) {
	i := slices.IndexFunc(s.Transactions, func(t Transaction) bool { return t.ID == id })
	if i < 0 {
		return Transaction{}, false
	}
	return s.Transactions[i], true
}

// Sort puts the collections in their canonical order. Store implementations
// call it before returning a snapshot.
func (s *Snapshot) Sort() {
	slices.SortStableFunc(s.Transactions, func(a, b Transaction) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(s.Contacts, func(a, b Contact) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(s.Items, func(a, b InventoryItem) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
