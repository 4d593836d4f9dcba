package bookkeeper

import "fmt"

// Discrepancy is a stored running total that differs from the one implied
// by the transaction log.
type Discrepancy struct {
	Record   string `json:"record"` // "contact" or "item"
	ID       string `json:"id"`
	Name     string `json:"name"`
	Stored   string `json:"stored"`
	Expected string `json:"expected"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s %s (%s): stored %s, log implies %s", d.Record, d.Name, d.ID, d.Stored, d.Expected)
}

// Audit replays the forward deltas of every transaction of the snapshot and
// compares the resulting balances and quantities with the stored ones.
// Transactions referencing records absent from the snapshot are reported
// too. An empty result means the three collections are consistent.
func Audit(snap *Snapshot) []Discrepancy {
	roles := make(map[string]Role, len(snap.Contacts))
	balances := make(map[string]Money, len(snap.Contacts))
	for _, c := range snap.Contacts {
		roles[c.ID] = c.Role
		balances[c.ID] = M(0)
	}
	quantities := make(map[string]Quantity, len(snap.Items))
	for _, i := range snap.Items {
		quantities[i.ID] = Q(0)
	}

	var found []Discrepancy
	for _, t := range snap.Transactions {
		if t.ContactID != "" {
			role, ok := roles[t.ContactID]
			if !ok {
				found = append(found, Discrepancy{Record: "contact", ID: t.ContactID, Name: t.ContactName, Stored: "missing", Expected: "referenced by " + t.ID})
			} else {
				balances[t.ContactID] = balances[t.ContactID].Add(BalanceDelta(t, role))
			}
		}
		for _, l := range t.LineItems {
			q, ok := quantities[l.ItemID]
			if !ok {
				found = append(found, Discrepancy{Record: "item", ID: l.ItemID, Name: l.Name, Stored: "missing", Expected: "referenced by " + t.ID})
				continue
			}
			quantities[l.ItemID] = q.Add(QuantityDelta(t.Kind, l))
		}
	}

	for _, c := range snap.Contacts {
		if want := balances[c.ID]; !want.Equal(c.Balance) {
			found = append(found, Discrepancy{Record: "contact", ID: c.ID, Name: c.Name, Stored: c.Balance.String(), Expected: want.String()})
		}
	}
	for _, i := range snap.Items {
		if want := quantities[i.ID]; !want.Equal(i.Quantity) {
			found = append(found, Discrepancy{Record: "item", ID: i.ID, Name: i.Name, Stored: i.Quantity.String(), Expected: want.String()})
		}
	}
	return found
}
