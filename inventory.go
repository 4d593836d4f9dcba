package bookkeeper

// QuantityDelta returns the change a forward application of line l of a
// transaction of kind k makes to the stock of its item.
func QuantityDelta(k Kind, l LineItem) Quantity {
	switch k {
	case Sale:
		return l.Quantity.Neg()
	case Purchase:
		return l.Quantity
	default:
		return Q(0)
	}
}

// inventoryLedger posts quantity deltas to the items of one unit.
type inventoryLedger struct {
	tx Tx
}

// resolve returns the item a line refers to. An item referenced by a name
// that no item carries yet is created with an empty stock, priced at the
// line's unit price.
func (l inventoryLedger) resolve(line LineItem) (InventoryItem, error) {
	ref := line.Ref()
	if !ref.IsNew() {
		return l.tx.Item(ref.ID)
	}
	item, err := l.tx.ItemByName(ref.Name)
	if err == nil {
		return item, nil
	}
	if !isNotFound(err) {
		return InventoryItem{}, err
	}
	return InventoryItem{
		ID:                newID(),
		Name:              ref.Name,
		Unit:              ref.Unit,
		Quantity:          Q(0),
		LastPurchasePrice: line.UnitPrice,
	}, nil
}

// forward applies every line of t, resolving and creating items as needed.
// The lines of t are updated in place with the resolved item id, name and
// unit.
func (l inventoryLedger) forward(t *Transaction) error {
	for i, line := range t.LineItems {
		item, err := l.resolve(line)
		if err != nil {
			return err
		}
		item.Quantity = item.Quantity.Add(QuantityDelta(t.Kind, line))
		if t.Kind == Purchase {
			item.LastPurchasePrice = line.UnitPrice
		}
		if err := l.tx.PutItem(item); err != nil {
			return err
		}
		t.LineItems[i] = LineItem{
			ItemID:    item.ID,
			Name:      item.Name,
			Unit:      item.Unit,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}
	return nil
}

// reverse takes back the quantities of a previously applied transaction.
// The last purchase price is left as is.
func (l inventoryLedger) reverse(t Transaction) error {
	for _, line := range t.LineItems {
		item, err := l.tx.Item(line.ItemID)
		if err != nil {
			return err
		}
		item.Quantity = item.Quantity.Sub(QuantityDelta(t.Kind, line))
		if err := l.tx.PutItem(item); err != nil {
			return err
		}
	}
	return nil
}
