package bookkeeper

import "fmt"

// BalanceDelta returns the change the forward application of t makes to the
// balance of its contact, whose role is given. The sign convention is that a
// positive balance is owed to the business.
//
//	sale                  +credit
//	purchase              -credit
//	settlement, customer  -amount
//	settlement, supplier  +amount
//	expense, capital      none
func BalanceDelta(t Transaction, role Role) Money {
	switch t.Kind {
	case Sale:
		return t.CreditAmount
	case Purchase:
		return t.CreditAmount.Neg()
	case Settlement:
		if role == Supplier {
			return t.Amount
		}
		return t.Amount.Neg()
	default:
		return M(0)
	}
}

// balanceLedger posts balance deltas to the contacts of one unit.
type balanceLedger struct {
	tx Tx
}

// resolve returns the contact t refers to, creating it if it is referenced
// by a name no contact of the implied role carries yet.
func (b balanceLedger) resolve(t Transaction) (Contact, error) {
	ref := t.Contact()
	if !ref.IsNew() {
		return b.tx.Contact(ref.ID)
	}
	role, ok := roleFor(t.Kind)
	if !ok {
		return Contact{}, fmt.Errorf("%w: a %s cannot create contact %q", ErrValidation, t.Kind, ref.Name)
	}
	c, err := b.tx.ContactByName(role, ref.Name)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return Contact{}, err
	}
	c = Contact{
		ID:        newID(),
		Role:      role,
		Name:      ref.Name,
		Phone:     ref.Phone,
		Balance:   M(0),
		CreatedAt: t.OccurredAt,
	}
	return c, b.tx.PutContact(c)
}

// forward resolves the contact of t, adds its delta and fills the contact
// fields of t.
func (b balanceLedger) forward(t *Transaction) error {
	if t.Contact().IsZero() {
		return nil
	}
	c, err := b.resolve(*t)
	if err != nil {
		return err
	}
	t.ContactID, t.ContactName, t.ContactRole = c.ID, c.Name, c.Role
	t.contact = ContactRef{}
	c.Balance = c.Balance.Add(BalanceDelta(*t, c.Role))
	return b.tx.PutContact(c)
}

// reverse subtracts the delta of a previously applied transaction, using the
// amounts stored on it.
func (b balanceLedger) reverse(t Transaction) error {
	if t.ContactID == "" {
		return nil
	}
	c, err := b.tx.Contact(t.ContactID)
	if err != nil {
		return err
	}
	c.Balance = c.Balance.Sub(BalanceDelta(t, c.Role))
	return b.tx.PutContact(c)
}
