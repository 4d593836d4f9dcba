package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/etnz/bookkeeper"
)

type rowKey struct {
	table string
	id    string
}

// rowState is what a unit knows about a row: the version it last saw or
// wrote, and whether the row exists at that point of the unit.
type rowState struct {
	version int64
	exists  bool
}

// tx implements bookkeeper.Tx inside one SQL transaction.
type tx struct {
	ctx  context.Context
	tx   *sql.Tx
	rows map[rowKey]rowState
}

// seen records the state of a row the first time the unit reads it.
func (t *tx) seen(table, id string, version int64, exists bool) {
	k := rowKey{table, id}
	if _, ok := t.rows[k]; !ok {
		t.rows[k] = rowState{version: version, exists: exists}
	}
}

// write runs an insert, or an update guarded by the version the unit knows
// of, depending on whether the row exists. insert and update receive the
// version to store.
func (t *tx) write(table, id string, insert, update func(version int64) (sql.Result, error)) error {
	k := rowKey{table, id}
	st := t.rows[k]
	if !st.exists {
		if _, err := insert(st.version + 1); err != nil {
			return classify("insert into "+table, err)
		}
		t.rows[k] = rowState{version: st.version + 1, exists: true}
		return nil
	}
	res, err := update(st.version)
	if err != nil {
		return classify("update "+table, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return classify("update "+table, err)
	} else if n == 0 {
		return bookkeeper.ConflictError("%s %s changed since version %d", table, id, st.version)
	}
	t.rows[k] = rowState{version: st.version + 1, exists: true}
	return nil
}

func (t *tx) Transaction(id string) (bookkeeper.Transaction, error) {
	txs, err := queryTransactions(t.ctx, t.tx, id)
	if err != nil {
		return bookkeeper.Transaction{}, err
	}
	if len(txs) == 0 {
		t.seen("transactions", id, 0, false)
		return bookkeeper.Transaction{}, bookkeeper.NotFoundError("transaction %q", id)
	}
	var version int64
	err = t.tx.QueryRowContext(t.ctx, `SELECT version FROM transactions WHERE id = ?`, id).Scan(&version)
	if err != nil {
		return bookkeeper.Transaction{}, classify("select transaction version", err)
	}
	t.seen("transactions", id, version, true)
	return txs[0], nil
}

// PutTransaction stores a transaction. A stored transaction is replaced as
// a whole, its line items included.
func (t *tx) PutTransaction(tr bookkeeper.Transaction) error {
	t.known("transactions", tr.ID)
	if t.rows[rowKey{"transactions", tr.ID}].exists {
		if err := t.DeleteTransaction(tr.ID); err != nil {
			return err
		}
	}

	var contactID any
	if tr.ContactID != "" {
		contactID = tr.ContactID
	}
	err := t.write("transactions", tr.ID, func(version int64) (sql.Result, error) {
		return t.tx.ExecContext(t.ctx, `INSERT INTO transactions
			(id, kind, contact_id, contact_name, contact_role, amount, paid_amount, credit_amount, occurred_at, description, category, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, string(tr.Kind), contactID, tr.ContactName, string(tr.ContactRole),
			tr.Amount.String(), tr.PaidAmount.String(), tr.CreditAmount.String(),
			formatTime(tr.OccurredAt), tr.Description, tr.Category, version)
	}, nil)
	if err != nil {
		return err
	}
	for i, l := range tr.LineItems {
		_, err := t.tx.ExecContext(t.ctx, `INSERT INTO line_items
			(transaction_id, position, item_id, name, unit, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, i, l.ItemID, l.Name, l.Unit, l.Quantity.String(), l.UnitPrice.String())
		if err != nil {
			return classify("insert into line_items", err)
		}
	}
	return nil
}

func (t *tx) DeleteTransaction(id string) error {
	k := rowKey{"transactions", id}
	st, ok := t.rows[k]
	if !ok {
		if _, err := t.Transaction(id); err != nil {
			return err
		}
		st = t.rows[k]
	}
	if !st.exists {
		return bookkeeper.NotFoundError("transaction %q", id)
	}
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM transactions WHERE id = ? AND version = ?`, id, st.version)
	if err != nil {
		return classify("delete transaction", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return classify("delete transaction", err)
	} else if n == 0 {
		return bookkeeper.ConflictError("transaction %s changed since version %d", id, st.version)
	}
	t.rows[k] = rowState{version: st.version, exists: false}
	return nil
}

func (t *tx) Contact(id string) (bookkeeper.Contact, error) {
	return t.contact(`WHERE id = ?`, id)
}

func (t *tx) ContactByName(role bookkeeper.Role, name string) (bookkeeper.Contact, error) {
	c, err := t.contact(`WHERE role = ? AND name = ?`, string(role), name)
	if errors.Is(err, bookkeeper.ErrNotFound) {
		return c, bookkeeper.NotFoundError("%s named %q", role, name)
	}
	return c, err
}

func (t *tx) contact(where string, args ...any) (bookkeeper.Contact, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+contactColumns+`, version FROM contacts `+where, args...)
	var version int64
	c, err := scanContact(row, &version)
	if errors.Is(err, sql.ErrNoRows) {
		if len(args) == 1 {
			t.seen("contacts", args[0].(string), 0, false)
		}
		return bookkeeper.Contact{}, bookkeeper.NotFoundError("contact %q", args[len(args)-1])
	}
	if err != nil {
		return bookkeeper.Contact{}, err
	}
	t.seen("contacts", c.ID, version, true)
	return c, nil
}

// PutContact stores a contact. The role of an existing contact is never
// changed.
func (t *tx) PutContact(c bookkeeper.Contact) error {
	t.known("contacts", c.ID)
	return t.write("contacts", c.ID, func(version int64) (sql.Result, error) {
		return t.tx.ExecContext(t.ctx, `INSERT INTO contacts
			(id, role, name, phone, address, balance, created_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, string(c.Role), c.Name, c.Phone, c.Address, c.Balance.String(), formatTime(c.CreatedAt), version)
	}, func(version int64) (sql.Result, error) {
		return t.tx.ExecContext(t.ctx, `UPDATE contacts
			SET name = ?, phone = ?, address = ?, balance = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			c.Name, c.Phone, c.Address, c.Balance.String(), c.ID, version)
	})
}

func (t *tx) Item(id string) (bookkeeper.InventoryItem, error) {
	return t.item(`WHERE id = ?`, id)
}

func (t *tx) ItemByName(name string) (bookkeeper.InventoryItem, error) {
	i, err := t.item(`WHERE name = ?`, name)
	if errors.Is(err, bookkeeper.ErrNotFound) {
		return i, bookkeeper.NotFoundError("item named %q", name)
	}
	return i, err
}

func (t *tx) item(where string, arg string) (bookkeeper.InventoryItem, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+itemColumns+`, version FROM items `+where, arg)
	var version int64
	i, err := scanItem(row, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return bookkeeper.InventoryItem{}, bookkeeper.NotFoundError("item %q", arg)
	}
	if err != nil {
		return bookkeeper.InventoryItem{}, err
	}
	t.seen("items", i.ID, version, true)
	return i, nil
}

func (t *tx) PutItem(i bookkeeper.InventoryItem) error {
	t.known("items", i.ID)
	return t.write("items", i.ID, func(version int64) (sql.Result, error) {
		return t.tx.ExecContext(t.ctx, `INSERT INTO items
			(id, name, unit, quantity, last_purchase_price, version)
			VALUES (?, ?, ?, ?, ?, ?)`,
			i.ID, i.Name, i.Unit, i.Quantity.String(), i.LastPurchasePrice.String(), version)
	}, func(version int64) (sql.Result, error) {
		return t.tx.ExecContext(t.ctx, `UPDATE items
			SET name = ?, unit = ?, quantity = ?, last_purchase_price = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			i.Name, i.Unit, i.Quantity.String(), i.LastPurchasePrice.String(), i.ID, version)
	})
}

// known makes sure the unit knows whether the row exists before writing it,
// so that a write of a row never read updates rather than collides.
func (t *tx) known(table, id string) {
	if _, ok := t.rows[rowKey{table, id}]; ok {
		return
	}
	var version int64
	err := t.tx.QueryRowContext(t.ctx, `SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&version)
	t.seen(table, id, version, err == nil)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
