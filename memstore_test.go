package bookkeeper

import (
	"context"
	"errors"
	"testing"
)

func seedContact(t *testing.T, s Store, c Contact) {
	t.Helper()
	err := s.Update(context.Background(), func(tx Tx) error { return tx.PutContact(c) })
	if err != nil {
		t.Fatalf("seeding contact: %v", err)
	}
}

func TestMemoryStore_ReadYourWrites(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), func(tx Tx) error {
		if err := tx.PutItem(InventoryItem{ID: "i1", Name: "Rice", Quantity: Q(2)}); err != nil {
			return err
		}
		got, err := tx.ItemByName("Rice")
		if err != nil {
			return err
		}
		if got.ID != "i1" {
			t.Errorf("ItemByName() got %q, want i1", got.ID)
		}
		if err := tx.PutTransaction(Transaction{ID: "t1", Kind: Capital, Amount: M(1)}); err != nil {
			return err
		}
		if err := tx.DeleteTransaction("t1"); err != nil {
			return err
		}
		if _, err := tx.Transaction("t1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Transaction() after delete: error = %v, want ErrNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	snap, _ := s.Snapshot(context.Background())
	if len(snap.Items) != 1 || len(snap.Transactions) != 0 {
		t.Errorf("Snapshot() got %d items and %d transactions, want 1 and 0", len(snap.Items), len(snap.Transactions))
	}
}

func TestMemoryStore_FailedUnitWritesNothing(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("boom")
	err := s.Update(context.Background(), func(tx Tx) error {
		_ = tx.PutContact(Contact{ID: "c1", Role: Customer, Name: "A"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want %v", err, boom)
	}
	snap, _ := s.Snapshot(context.Background())
	if len(snap.Contacts) != 0 {
		t.Errorf("Snapshot() got %d contacts, want 0", len(snap.Contacts))
	}
}

func TestMemoryStore_Conflicts(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name string
		// read is run by the outer unit before the interleaved commit.
		read func(tx Tx) error
		// interleaved is committed between the read and the outer commit.
		interleaved func(tx Tx) error
		conflict    bool
	}{
		{
			name:        "changed record",
			read:        func(tx Tx) error { _, err := tx.Contact("c1"); return err },
			interleaved: func(tx Tx) error { return tx.PutContact(Contact{ID: "c1", Role: Customer, Name: "A", Balance: M(5)}) },
			conflict:    true,
		},
		{
			name: "record created after a miss",
			read: func(tx Tx) error {
				if _, err := tx.Item("i1"); !errors.Is(err, ErrNotFound) {
					return err
				}
				return nil
			},
			interleaved: func(tx Tx) error { return tx.PutItem(InventoryItem{ID: "i1", Name: "Rice"}) },
			conflict:    true,
		},
		{
			name: "name taken after a miss",
			read: func(tx Tx) error {
				if _, err := tx.ItemByName("Rice"); !errors.Is(err, ErrNotFound) {
					return err
				}
				return nil
			},
			interleaved: func(tx Tx) error { return tx.PutItem(InventoryItem{ID: "i2", Name: "Rice"}) },
			conflict:    true,
		},
		{
			name:        "disjoint records",
			read:        func(tx Tx) error { _, err := tx.Contact("c1"); return err },
			interleaved: func(tx Tx) error { return tx.PutContact(Contact{ID: "c2", Role: Supplier, Name: "B"}) },
			conflict:    false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemoryStore()
			seedContact(t, s, Contact{ID: "c1", Role: Customer, Name: "A"})
			err := s.Update(ctx, func(tx Tx) error {
				if err := tc.read(tx); err != nil {
					return err
				}
				if err := s.Update(ctx, tc.interleaved); err != nil {
					t.Fatalf("interleaved Update() unexpected error: %v", err)
				}
				return tx.PutContact(Contact{ID: "c1", Role: Customer, Name: "A", Balance: M(1)})
			})
			if got := errors.Is(err, ErrConflict); got != tc.conflict {
				t.Fatalf("Update() error = %v, want conflict %v", err, tc.conflict)
			}
		})
	}
}

func TestMemoryStore_SnapshotOrder(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), func(tx Tx) error {
		_ = tx.PutContact(Contact{ID: "2", Name: "Zed"})
		_ = tx.PutContact(Contact{ID: "1", Name: "Abe"})
		_ = tx.PutTransaction(Transaction{ID: "b", Kind: Capital, OccurredAt: testNow})
		_ = tx.PutTransaction(Transaction{ID: "a", Kind: Capital, OccurredAt: testNow.Add(1)})
		_ = tx.PutTransaction(Transaction{ID: "c", Kind: Capital, OccurredAt: testNow})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	snap, _ := s.Snapshot(context.Background())
	if snap.Contacts[0].Name != "Abe" {
		t.Errorf("contacts: got %s first, want Abe", snap.Contacts[0].Name)
	}
	var ids string
	for _, tx := range snap.Transactions {
		ids += tx.ID
	}
	if ids != "bca" {
		t.Errorf("transactions: got order %q, want %q", ids, "bca")
	}
}
