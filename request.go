package bookkeeper

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LineRequest is a line item as entered by the user.
type LineRequest struct {
	Item      ItemRef
	Quantity  Quantity
	UnitPrice Money
}

// TransactionRequest is what the presentation layer submits to create or
// edit a transaction. Amount and Paid are pointers so that absence can be
// told apart from zero.
type TransactionRequest struct {
	Kind    Kind
	Contact ContactRef
	Lines   []LineRequest
	// Amount is the entered value of an expense, capital or settlement.
	// It is ignored for sales and purchases, whose amount is computed.
	Amount *Money
	// Paid is the cash settled at entry for a sale or a purchase.
	Paid        *Money
	OccurredAt  time.Time
	Description string
	Category    string
}

// Build validates the request and returns the transaction it describes,
// carrying the given id. All validation failures are reported at once in an
// error matching ErrValidation.
func (r TransactionRequest) Build(id string, now time.Time) (Transaction, error) {
	tx := Transaction{
		ID:          id,
		Kind:        r.Kind,
		OccurredAt:  r.OccurredAt,
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	if tx.Description == "" {
		tx.Description = string(r.Kind)
	}

	if !r.Kind.Valid() {
		return tx, fmt.Errorf("%w: unknown kind %q", ErrValidation, r.Kind)
	}

	var errs []error
	switch {
	case r.Kind.NeedsContact() && r.Contact.IsZero():
		errs = append(errs, fmt.Errorf("a %s needs a contact", r.Kind))
	case !r.Kind.NeedsContact() && !r.Contact.IsZero():
		errs = append(errs, fmt.Errorf("a %s cannot reference a contact", r.Kind))
	case r.Kind == Settlement && r.Contact.IsNew():
		errs = append(errs, errors.New("a settlement needs an existing contact"))
	}
	if r.Contact.ID != "" {
		tx.ContactID = r.Contact.ID
	} else {
		tx.contact = r.Contact
	}

	if r.Kind.HasLines() {
		errs = append(errs, r.buildLines(&tx)...)
	} else {
		if len(r.Lines) > 0 {
			errs = append(errs, fmt.Errorf("a %s has no line items", r.Kind))
		}
		if r.Amount == nil {
			errs = append(errs, fmt.Errorf("a %s needs an amount", r.Kind))
		} else {
			tx.Amount = *r.Amount
		}
		// always fully settled at entry
		tx.PaidAmount = tx.Amount
		tx.CreditAmount = M(0)
	}
	if tx.Kind != Expense {
		tx.Category = ""
	}

	if err := errors.Join(errs...); err != nil {
		return tx, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return tx, nil
}

// buildLines validates the line items and sets the amounts they imply.
func (r TransactionRequest) buildLines(tx *Transaction) (errs []error) {
	if len(r.Lines) == 0 {
		return []error{fmt.Errorf("a %s needs at least one line item", r.Kind)}
	}
	total := M(0)
	for i, l := range r.Lines {
		if l.Item.IsNew() && l.Item.Name == "" {
			errs = append(errs, fmt.Errorf("line %d: missing item", i+1))
		}
		if !l.Quantity.IsPositive() {
			errs = append(errs, fmt.Errorf("line %d: quantity must be positive, got %s", i+1, l.Quantity))
		}
		if l.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Errorf("line %d: unit price cannot be negative, got %s", i+1, l.UnitPrice))
		}
		line := LineItem{
			ItemID:    l.Item.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if l.Item.IsNew() {
			line.ref = l.Item
			line.Name, line.Unit = l.Item.Name, l.Item.Unit
		}
		tx.LineItems = append(tx.LineItems, line)
		total = total.Add(line.Subtotal())
	}
	// the caller's amount is never trusted for itemized transactions.
	tx.Amount = total
	if r.Paid != nil {
		tx.PaidAmount = *r.Paid
	} else {
		tx.PaidAmount = M(0)
	}
	tx.CreditAmount = tx.Amount.Sub(tx.PaidAmount)
	return errs
}

// Validate checks the invariants of a transaction about to be applied: a
// known kind, the contact its kind calls for, positive line quantities with
// non-negative prices, an amount equal to the sum of the lines and a credit
// equal to what is left unpaid. Failures are reported at once in an error
// matching ErrValidation.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing transaction id", ErrValidation)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, t.Kind)
	}

	var errs []error
	contact := t.Contact()
	switch {
	case t.Kind.NeedsContact() && contact.IsZero():
		errs = append(errs, fmt.Errorf("a %s needs a contact", t.Kind))
	case !t.Kind.NeedsContact() && !contact.IsZero():
		errs = append(errs, fmt.Errorf("a %s cannot reference a contact", t.Kind))
	case t.Kind == Settlement && contact.IsNew():
		errs = append(errs, errors.New("a settlement needs an existing contact"))
	}

	if t.Kind.HasLines() {
		if len(t.LineItems) == 0 {
			errs = append(errs, fmt.Errorf("a %s needs at least one line item", t.Kind))
		}
		total := M(0)
		for i, l := range t.LineItems {
			if ref := l.Ref(); ref.IsNew() && ref.Name == "" {
				errs = append(errs, fmt.Errorf("line %d: missing item", i+1))
			}
			if !l.Quantity.IsPositive() {
				errs = append(errs, fmt.Errorf("line %d: quantity must be positive, got %s", i+1, l.Quantity))
			}
			if l.UnitPrice.IsNegative() {
				errs = append(errs, fmt.Errorf("line %d: unit price cannot be negative, got %s", i+1, l.UnitPrice))
			}
			total = total.Add(l.Subtotal())
		}
		if !t.Amount.Equal(total) {
			errs = append(errs, fmt.Errorf("amount %s differs from the sum of the lines %s", t.Amount, total))
		}
	} else if len(t.LineItems) > 0 {
		errs = append(errs, fmt.Errorf("a %s has no line items", t.Kind))
	}
	if !t.CreditAmount.Equal(t.Amount.Sub(t.PaidAmount)) {
		errs = append(errs, fmt.Errorf("credit %s differs from amount %s minus paid %s", t.CreditAmount, t.Amount, t.PaidAmount))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
