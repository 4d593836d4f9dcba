package bookkeeper

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeTransactions reads a stream of JSONL transactions, one per line, as
// written by EncodeTransactions. Blank lines are skipped.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var t Transaction
		if err := json.Unmarshal(lineBytes, &t); err != nil {
			return nil, fmt.Errorf("line %d: cannot decode transaction %q: %w", n, string(lineBytes), err)
		}
		if !t.Kind.Valid() {
			return nil, fmt.Errorf("line %d: unknown transaction kind %q", n, t.Kind)
		}
		txs = append(txs, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read transactions: %w", err)
	}
	return txs, nil
}

// EncodeTransactions writes the transactions to w in JSONL format, one per
// line, in the order given.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	enc := json.NewEncoder(w)
	for _, t := range txs {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("cannot encode transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Import replays decoded transactions, in order, through the coordinator.
// Each transaction is one ledger unit. Items are matched by name and created
// when missing. Contacts are matched by role and name and created when
// missing, since exported contact ids are meaningless in another dataset.
// A transaction whose id already exists is rejected.
//
// It returns the number of transactions imported before the first failure.
func (c *Coordinator) Import(ctx context.Context, txs []Transaction) (int, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	type key struct {
		role Role
		name string
	}
	known := make(map[key]string, len(snap.Contacts))
	for _, ct := range snap.Contacts {
		known[key{ct.Role, ct.Name}] = ct.ID
	}

	for i, t := range txs {
		req := t.Request(true)
		if t.ContactName != "" {
			role := t.ContactRole
			if role == "" {
				role, _ = roleFor(t.Kind)
			}
			k := key{role, t.ContactName}
			id, ok := known[k]
			if !ok {
				ct, err := c.AddContact(ctx, role, t.ContactName, "", "")
				if err != nil {
					return i, fmt.Errorf("transaction %d (%s): %w", i+1, t.ID, err)
				}
				id = ct.ID
				known[k] = id
			}
			req.Contact = ExistingContact(id)
		}
		id := t.ID
		if id == "" {
			id = newID()
		}
		next, err := req.Build(id, c.now())
		if err != nil {
			return i, fmt.Errorf("transaction %d (%s): %w", i+1, t.ID, err)
		}
		if _, err := c.Apply(ctx, "", &next); err != nil {
			return i, fmt.Errorf("transaction %d (%s): %w", i+1, t.ID, err)
		}
	}
	c.log.Info().Int("count", len(txs)).Msg("transactions imported")
	return len(txs), nil
}
