package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/etnz/bookkeeper"
)

// querier is the read side shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const contactColumns = `id, role, name, phone, address, balance, created_at`

// scanContact reads the contact columns, followed by extra destinations.
func scanContact(row scanner, extra ...any) (bookkeeper.Contact, error) {
	var c bookkeeper.Contact
	var role, balance, createdAt string
	dest := append([]any{&c.ID, &role, &c.Name, &c.Phone, &c.Address, &balance, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return c, err
		}
		return c, classify("scan contact", err)
	}
	c.Role = bookkeeper.Role(role)
	var err error
	if c.Balance, err = bookkeeper.ParseMoney(balance); err != nil {
		return c, bookkeeper.StorageError("decode contact "+c.ID, err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, bookkeeper.StorageError("decode contact "+c.ID, err)
	}
	return c, nil
}

const itemColumns = `id, name, unit, quantity, last_purchase_price`

// scanItem reads the item columns, followed by extra destinations.
func scanItem(row scanner, extra ...any) (bookkeeper.InventoryItem, error) {
	var i bookkeeper.InventoryItem
	var quantity, price string
	dest := append([]any{&i.ID, &i.Name, &i.Unit, &quantity, &price}, extra...)
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return i, err
		}
		return i, classify("scan item", err)
	}
	var err error
	if i.Quantity, err = bookkeeper.ParseQuantity(quantity); err != nil {
		return i, bookkeeper.StorageError("decode item "+i.ID, err)
	}
	if i.LastPurchasePrice, err = bookkeeper.ParseMoney(price); err != nil {
		return i, bookkeeper.StorageError("decode item "+i.ID, err)
	}
	return i, nil
}

func queryContacts(ctx context.Context, q querier) ([]bookkeeper.Contact, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts`)
	if err != nil {
		return nil, classify("select contacts", err)
	}
	defer rows.Close()
	var list []bookkeeper.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("select contacts", err)
	}
	return list, nil
}

func queryItems(ctx context.Context, q querier) ([]bookkeeper.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+itemColumns+` FROM items`)
	if err != nil {
		return nil, classify("select items", err)
	}
	defer rows.Close()
	var list []bookkeeper.InventoryItem
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, i)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("select items", err)
	}
	return list, nil
}

// queryTransactions loads the transaction id with its line items, or all
// of them when id is empty.
func queryTransactions(ctx context.Context, q querier, id string) ([]bookkeeper.Transaction, error) {
	where, args := "", []any{}
	if id != "" {
		where, args = ` WHERE id = ?`, []any{id}
	}
	rows, err := q.QueryContext(ctx, `SELECT id, kind, COALESCE(contact_id, ''), contact_name, contact_role,
		amount, paid_amount, credit_amount, occurred_at, description, category
		FROM transactions`+where, args...)
	if err != nil {
		return nil, classify("select transactions", err)
	}
	var list []bookkeeper.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var t bookkeeper.Transaction
		var kind, role, amount, paid, credit, occurredAt string
		err := rows.Scan(&t.ID, &kind, &t.ContactID, &t.ContactName, &role,
			&amount, &paid, &credit, &occurredAt, &t.Description, &t.Category)
		if err != nil {
			rows.Close()
			return nil, classify("scan transaction", err)
		}
		t.Kind, t.ContactRole = bookkeeper.Kind(kind), bookkeeper.Role(role)
		if err := decodeAll(
			func() (err error) { t.Amount, err = bookkeeper.ParseMoney(amount); return },
			func() (err error) { t.PaidAmount, err = bookkeeper.ParseMoney(paid); return },
			func() (err error) { t.CreditAmount, err = bookkeeper.ParseMoney(credit); return },
			func() (err error) { t.OccurredAt, err = parseTime(occurredAt); return },
		); err != nil {
			rows.Close()
			return nil, bookkeeper.StorageError("decode transaction "+t.ID, err)
		}
		index[t.ID] = len(list)
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, classify("select transactions", err)
	}
	rows.Close()
	if len(list) == 0 {
		return nil, nil
	}

	where = ""
	if id != "" {
		where = ` WHERE transaction_id = ?`
	}
	lines, err := q.QueryContext(ctx, `SELECT transaction_id, item_id, name, unit, quantity, unit_price
		FROM line_items`+where+` ORDER BY transaction_id, position`, args...)
	if err != nil {
		return nil, classify("select line items", err)
	}
	defer lines.Close()
	for lines.Next() {
		var txID, quantity, price string
		var l bookkeeper.LineItem
		if err := lines.Scan(&txID, &l.ItemID, &l.Name, &l.Unit, &quantity, &price); err != nil {
			return nil, classify("scan line item", err)
		}
		if err := decodeAll(
			func() (err error) { l.Quantity, err = bookkeeper.ParseQuantity(quantity); return },
			func() (err error) { l.UnitPrice, err = bookkeeper.ParseMoney(price); return },
		); err != nil {
			return nil, bookkeeper.StorageError("decode line item of "+txID, err)
		}
		if i, ok := index[txID]; ok {
			list[i].LineItems = append(list[i].LineItems, l)
		}
	}
	if err := lines.Err(); err != nil {
		return nil, classify("select line items", err)
	}
	return list, nil
}

// decodeAll runs the decoders in order and stops at the first failure.
func decodeAll(decoders ...func() error) error {
	for _, decode := range decoders {
		if err := decode(); err != nil {
			return err
		}
	}
	return nil
}

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
