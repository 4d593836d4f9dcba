package bookkeeper

import (
	"context"
	"testing"
)

func TestAudit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := newTestCoordinator(store)
	mustCreate(t, c, TransactionRequest{Kind: Purchase, Contact: NewContact("Mill", ""),
		Lines: []LineRequest{{Item: NewItem("Rice", ""), Quantity: Q(5), UnitPrice: M(2)}}})
	mustCreate(t, c, TransactionRequest{Kind: Sale, Contact: NewContact("Ama", ""),
		Lines: []LineRequest{{Item: NewItem("Rice", ""), Quantity: Q(1), UnitPrice: M(4)}}})

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() unexpected error: %v", err)
	}
	if got := Audit(snap); len(got) != 0 {
		t.Fatalf("Audit() on a consistent store got %v, want none", got)
	}

	// tamper with a running total behind the coordinator's back
	rice := itemNamed(t, store, "Rice")
	rice.Quantity = Q(100)
	if err := store.Update(ctx, func(tx Tx) error { return tx.PutItem(rice) }); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	snap, _ = store.Snapshot(ctx)
	got := Audit(snap)
	if len(got) != 1 {
		t.Fatalf("Audit() got %v, want one discrepancy", got)
	}
	if d := got[0]; d.Record != "item" || d.Stored != "100" || d.Expected != "4" {
		t.Errorf("Audit() got %s, want item Rice stored 100 expected 4", d)
	}
}

func TestAudit_MissingRecords(t *testing.T) {
	snap := &Snapshot{Transactions: []Transaction{
		{ID: "t1", Kind: Sale, ContactID: "c1", ContactName: "Ama", CreditAmount: M(3),
			LineItems: []LineItem{{ItemID: "i1", Name: "Rice", Quantity: Q(1)}}},
	}}
	got := Audit(snap)
	if len(got) != 2 {
		t.Fatalf("Audit() got %v, want two missing records", got)
	}
	if got[0].Record != "contact" || got[1].Record != "item" {
		t.Errorf("Audit() got %v, want the contact then the item", got)
	}
}
