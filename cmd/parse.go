package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/bookkeeper"
)

// parseDate reads a date as entered on the command line: YYYY-MM-DD, an
// RFC 3339 timestamp, "today", "yesterday" or a number of days back like
// "-3d". An empty date means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch s {
	case "":
		return now, nil
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	if strings.HasPrefix(s, "-") && strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil && n >= 0 {
			return today.AddDate(0, 0, -n), nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD, today, yesterday or -<n>d", s)
}

// lineSpec is a line item as written on the command line:
// "name[/unit]=qty@price", or "#id=qty@price" for a known item.
type lineSpec struct {
	ID        string
	Name      string
	Unit      string
	Quantity  bookkeeper.Quantity
	UnitPrice bookkeeper.Money
}

func parseLine(s string) (lineSpec, error) {
	var l lineSpec
	item, rest, ok := strings.Cut(s, "=")
	if !ok {
		return l, fmt.Errorf("invalid line %q, want name[/unit]=qty@price", s)
	}
	qty, price, ok := strings.Cut(rest, "@")
	if !ok {
		return l, fmt.Errorf("invalid line %q: missing @price", s)
	}
	item = strings.TrimSpace(item)
	if id, found := strings.CutPrefix(item, "#"); found {
		l.ID = id
	} else {
		l.Name, l.Unit, _ = strings.Cut(item, "/")
		l.Name, l.Unit = strings.TrimSpace(l.Name), strings.TrimSpace(l.Unit)
	}
	if l.ID == "" && l.Name == "" {
		return l, fmt.Errorf("invalid line %q: missing item", s)
	}
	var err error
	if l.Quantity, err = bookkeeper.ParseQuantity(strings.TrimSpace(qty)); err != nil {
		return l, fmt.Errorf("invalid line %q: %w", s, err)
	}
	if l.UnitPrice, err = bookkeeper.ParseMoney(strings.TrimSpace(price)); err != nil {
		return l, fmt.Errorf("invalid line %q: %w", s, err)
	}
	return l, nil
}

// lineList collects the repeated -l flags.
type lineList []lineSpec

var _ flag.Value = (*lineList)(nil)

func (l *lineList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, s := range *l {
		item := "#" + s.ID
		if s.ID == "" {
			item = s.Name
			if s.Unit != "" {
				item += "/" + s.Unit
			}
		}
		parts[i] = fmt.Sprintf("%s=%s@%s", item, s.Quantity, s.UnitPrice)
	}
	return strings.Join(parts, ",")
}

func (l *lineList) Set(s string) error {
	spec, err := parseLine(s)
	if err != nil {
		return err
	}
	*l = append(*l, spec)
	return nil
}

// moneyFlag is an optional amount flag.
type moneyFlag struct{ value *bookkeeper.Money }

func (m *moneyFlag) String() string {
	if m == nil || m.value == nil {
		return ""
	}
	return m.value.String()
}

func (m *moneyFlag) Set(s string) error {
	v, err := bookkeeper.ParseMoney(s)
	if err != nil {
		return err
	}
	m.value = &v
	return nil
}

// resolveLines turns line specs into line requests, referencing known items
// by id and unknown names as new items.
func resolveLines(snap *bookkeeper.Snapshot, specs []lineSpec) []bookkeeper.LineRequest {
	lines := make([]bookkeeper.LineRequest, 0, len(specs))
	for _, s := range specs {
		ref := bookkeeper.ExistingItem(s.ID)
		if s.ID == "" {
			ref = bookkeeper.NewItem(s.Name, s.Unit)
			for _, it := range snap.Items {
				if it.Name == s.Name {
					ref = bookkeeper.ExistingItem(it.ID)
					break
				}
			}
		}
		lines = append(lines, bookkeeper.LineRequest{Item: ref, Quantity: s.Quantity, UnitPrice: s.UnitPrice})
	}
	return lines
}

// findContact finds a contact by "#id" or by name. A name matching several
// contacts needs a role to be told apart.
func findContact(snap *bookkeeper.Snapshot, ref string, role bookkeeper.Role) (bookkeeper.Contact, error) {
	if id, ok := strings.CutPrefix(ref, "#"); ok {
		c, found := snap.Contact(id)
		if !found {
			return c, bookkeeper.NotFoundError("contact %s", id)
		}
		return c, nil
	}
	var matches []bookkeeper.Contact
	for _, c := range snap.Contacts {
		if c.Name == ref && (role == "" || c.Role == role) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return bookkeeper.Contact{}, bookkeeper.NotFoundError("contact %q", ref)
	case 1:
		return matches[0], nil
	default:
		return bookkeeper.Contact{}, fmt.Errorf("%w: %q is both a customer and a supplier, use -role", bookkeeper.ErrValidation, ref)
	}
}

// resolveContact references the contact of a sale or a purchase: the known
// contact with that name and the role the kind implies, or a new one.
func resolveContact(snap *bookkeeper.Snapshot, kind bookkeeper.Kind, ref, phone string) (bookkeeper.ContactRef, error) {
	role := bookkeeper.Customer
	if kind == bookkeeper.Purchase {
		role = bookkeeper.Supplier
	}
	c, err := findContact(snap, ref, role)
	switch {
	case err == nil:
		return bookkeeper.ExistingContact(c.ID), nil
	case strings.HasPrefix(ref, "#"):
		return bookkeeper.ContactRef{}, err
	default:
		return bookkeeper.NewContact(ref, phone), nil
	}
}
