package bookkeeper

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store with optimistic concurrency control.
//
// Units run without holding any lock: reads record the version of what they
// observed and writes are buffered. Commit validates the observed versions
// and applies the buffer under the store mutex, so a unit either lands
// entirely or not at all. It is safe for concurrent use. Data is lost when
// the process exits.
type MemoryStore struct {
	mu           sync.Mutex
	version      uint64 // last committed version
	transactions map[string]entry[Transaction]
	contacts     map[string]entry[Contact]
	items        map[string]entry[InventoryItem]
}

type entry[T any] struct {
	value   T
	version uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]entry[Transaction]),
		contacts:     make(map[string]entry[Contact]),
		items:        make(map[string]entry[InventoryItem]),
	}
}

// collection tags the three record families in read sets.
type collection byte

const (
	collTransactions collection = 't'
	collContacts     collection = 'c'
	collItems        collection = 'i'
)

type recordKey struct {
	coll collection
	id   string
}

type nameKey struct {
	coll collection
	role Role
	name string
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &memTx{
		s:            s,
		reads:        make(map[recordKey]uint64),
		names:        make(map[nameKey]string),
		transactions: make(map[string]*Transaction),
		contacts:     make(map[string]Contact),
		items:        make(map[string]InventoryItem),
	}
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *MemoryStore) commit(t *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, seen := range t.reads {
		if current := s.versionOf(k); current != seen {
			return ConflictError("%c/%s changed from version %d to %d", k.coll, k.id, seen, current)
		}
	}
	for k, seen := range t.names {
		if current := s.lookup(k); current != seen {
			return ConflictError("name %q now resolves to %q instead of %q", k.name, current, seen)
		}
	}

	s.version++
	for id, tx := range t.transactions {
		if tx == nil {
			delete(s.transactions, id)
			continue
		}
		s.transactions[id] = entry[Transaction]{tx.Clone(), s.version}
	}
	for id, c := range t.contacts {
		s.contacts[id] = entry[Contact]{c, s.version}
	}
	for id, i := range t.items {
		s.items[id] = entry[InventoryItem]{i, s.version}
	}
	return nil
}

// versionOf returns the committed version of a record, 0 when absent.
// s.mu must be held.
func (s *MemoryStore) versionOf(k recordKey) uint64 {
	switch k.coll {
	case collTransactions:
		return s.transactions[k.id].version
	case collContacts:
		return s.contacts[k.id].version
	default:
		return s.items[k.id].version
	}
}

// lookup resolves a name to a committed record id, "" when none.
// s.mu must be held.
func (s *MemoryStore) lookup(k nameKey) string {
	if k.coll == collContacts {
		for id, e := range s.contacts {
			if e.value.Role == k.role && e.value.Name == k.name {
				return id
			}
		}
		return ""
	}
	for id, e := range s.items {
		if e.value.Name == k.name {
			return id
		}
	}
	return ""
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Transactions: make([]Transaction, 0, len(s.transactions)),
		Contacts:     make([]Contact, 0, len(s.contacts)),
		Items:        make([]InventoryItem, 0, len(s.items)),
	}
	for _, e := range s.transactions {
		snap.Transactions = append(snap.Transactions, e.value.Clone())
	}
	for _, e := range s.contacts {
		snap.Contacts = append(snap.Contacts, e.value)
	}
	for _, e := range s.items {
		snap.Items = append(snap.Items, e.value)
	}
	snap.Sort()
	return snap, nil
}

// memTx buffers the writes of one unit and remembers what it read.
type memTx struct {
	s     *MemoryStore
	reads map[recordKey]uint64
	names map[nameKey]string

	transactions map[string]*Transaction // nil marks a deletion
	contacts     map[string]Contact
	items        map[string]InventoryItem
}

// observe records the version of a committed record the first time the unit
// reads it.
func (t *memTx) observe(k recordKey, version uint64) {
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = version
	}
}

func (t *memTx) Transaction(id string) (Transaction, error) {
	if tx, ok := t.transactions[id]; ok {
		if tx == nil {
			return Transaction{}, NotFoundError("transaction %q", id)
		}
		return tx.Clone(), nil
	}
	t.s.mu.Lock()
	e, ok := t.s.transactions[id]
	t.s.mu.Unlock()
	t.observe(recordKey{collTransactions, id}, e.version)
	if !ok {
		return Transaction{}, NotFoundError("transaction %q", id)
	}
	return e.value.Clone(), nil
}

func (t *memTx) PutTransaction(tx Transaction) error {
	tx = tx.Clone()
	t.transactions[tx.ID] = &tx
	return nil
}

func (t *memTx) DeleteTransaction(id string) error {
	if _, err := t.Transaction(id); err != nil {
		return err
	}
	t.transactions[id] = nil
	return nil
}

func (t *memTx) Contact(id string) (Contact, error) {
	if c, ok := t.contacts[id]; ok {
		return c, nil
	}
	t.s.mu.Lock()
	e, ok := t.s.contacts[id]
	t.s.mu.Unlock()
	t.observe(recordKey{collContacts, id}, e.version)
	if !ok {
		return Contact{}, NotFoundError("contact %q", id)
	}
	return e.value, nil
}

func (t *memTx) ContactByName(role Role, name string) (Contact, error) {
	for _, c := range t.contacts {
		if c.Role == role && c.Name == name {
			return c, nil
		}
	}
	k := nameKey{coll: collContacts, role: role, name: name}
	t.s.mu.Lock()
	id := t.s.lookup(k)
	t.s.mu.Unlock()
	if _, seen := t.names[k]; !seen {
		t.names[k] = id
	}
	if id == "" {
		return Contact{}, NotFoundError("%s named %q", role, name)
	}
	return t.Contact(id)
}

func (t *memTx) PutContact(c Contact) error {
	t.contacts[c.ID] = c
	return nil
}

func (t *memTx) Item(id string) (InventoryItem, error) {
	if i, ok := t.items[id]; ok {
		return i, nil
	}
	t.s.mu.Lock()
	e, ok := t.s.items[id]
	t.s.mu.Unlock()
	t.observe(recordKey{collItems, id}, e.version)
	if !ok {
		return InventoryItem{}, NotFoundError("item %q", id)
	}
	return e.value, nil
}

func (t *memTx) ItemByName(name string) (InventoryItem, error) {
	for _, i := range t.items {
		if i.Name == name {
			return i, nil
		}
	}
	k := nameKey{coll: collItems, name: name}
	t.s.mu.Lock()
	id := t.s.lookup(k)
	t.s.mu.Unlock()
	if _, seen := t.names[k]; !seen {
		t.names[k] = id
	}
	if id == "" {
		return InventoryItem{}, NotFoundError("item named %q", name)
	}
	return t.Item(id)
}

func (t *memTx) PutItem(i InventoryItem) error {
	t.items[i.ID] = i
	return nil
}
