package api

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/etnz/bookkeeper"
)

// refBody references an existing record by id, or a new one by name.
type refBody struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Unit  string `json:"unit,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type lineBody struct {
	Item      refBody             `json:"item"`
	Quantity  bookkeeper.Quantity `json:"quantity"`
	UnitPrice bookkeeper.Money    `json:"unitPrice"`
}

// transactionBody is the payload of a create or an edit.
type transactionBody struct {
	Kind        bookkeeper.Kind   `json:"kind"`
	Contact     *refBody          `json:"contact,omitempty"`
	Lines       []lineBody        `json:"lines,omitempty"`
	Amount      *bookkeeper.Money `json:"amount,omitempty"`
	Paid        *bookkeeper.Money `json:"paid,omitempty"`
	Date        string            `json:"date,omitempty"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
}

type contactBody struct {
	Role    bookkeeper.Role `json:"role"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
}

type itemBody struct {
	Name  string           `json:"name"`
	Unit  string           `json:"unit"`
	Price bookkeeper.Money `json:"price"`
}

// clean strips markup from free text. Entities escaped by the policy are
// restored since the text is never rendered as HTML by this service.
func (s *Server) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

// parseDate accepts a calendar day or an RFC 3339 timestamp. An empty date
// means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD or RFC 3339", bookkeeper.ErrValidation, s)
	}
	return t, nil
}

// request converts the payload into an engine request.
func (s *Server) request(b transactionBody) (bookkeeper.TransactionRequest, error) {
	date, err := parseDate(b.Date)
	if err != nil {
		return bookkeeper.TransactionRequest{}, err
	}
	req := bookkeeper.TransactionRequest{
		Kind:        b.Kind,
		Amount:      b.Amount,
		Paid:        b.Paid,
		OccurredAt:  date,
		Description: s.clean(b.Description),
		Category:    s.clean(b.Category),
	}
	if c := b.Contact; c != nil {
		if c.ID != "" {
			req.Contact = bookkeeper.ExistingContact(c.ID)
		} else {
			req.Contact = bookkeeper.NewContact(s.clean(c.Name), s.clean(c.Phone))
		}
	}
	for _, l := range b.Lines {
		ref := bookkeeper.ExistingItem(l.Item.ID)
		if l.Item.ID == "" {
			ref = bookkeeper.NewItem(s.clean(l.Item.Name), s.clean(l.Item.Unit))
		}
		req.Lines = append(req.Lines, bookkeeper.LineRequest{Item: ref, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return req, nil
}
