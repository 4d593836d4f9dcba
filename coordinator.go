package bookkeeper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the number of times a ledger unit is tried before a
// conflict is reported to the caller.
const DefaultMaxAttempts = 5

// Coordinator is the only writer of the ledger. Each of its operations is
// one ledger unit: the reversal of a stored transaction and/or the
// application of a new one, committed atomically with every balance and
// stock change they imply.
type Coordinator struct {
	store       Store
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxAttempts bounds the number of tries of a conflicting unit.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between two tries of a conflicting unit.
// The delay doubles at each try and is jittered. Zero retries immediately.
func WithBackoff(d time.Duration) Option {
	return func(c *Coordinator) { c.backoff = d }
}

// WithLogger sets the logger of the coordinator.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock sets the clock used to date requests without a date.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator returns a coordinator writing to store.
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		backoff:     5 * time.Millisecond,
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create records a new transaction and returns its id.
func (c *Coordinator) Create(ctx context.Context, req TransactionRequest) (string, error) {
	next, err := req.Build(newID(), c.now())
	if err != nil {
		return "", err
	}
	applied, err := c.Apply(ctx, "", &next)
	if err != nil {
		return "", err
	}
	return applied.ID, nil
}

// Edit replaces the transaction id with the one req describes. The stored
// transaction is fully reversed before the replacement is applied.
func (c *Coordinator) Edit(ctx context.Context, id string, req TransactionRequest) error {
	if id == "" {
		return fmt.Errorf("%w: missing transaction id", ErrValidation)
	}
	next, err := req.Build(id, c.now())
	if err != nil {
		return err
	}
	_, err = c.Apply(ctx, id, &next)
	return err
}

// Delete reverses and removes the transaction id.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing transaction id", ErrValidation)
	}
	_, err := c.Apply(ctx, id, nil)
	return err
}

// Apply runs one ledger unit. If previousID is set, the stored transaction
// with that id is reversed and removed. If next is set, it is validated,
// applied and stored. The stored form of next, with every reference
// resolved, is returned.
//
// A unit that conflicts with a concurrent one is retried from scratch up to
// the configured number of attempts.
func (c *Coordinator) Apply(ctx context.Context, previousID string, next *Transaction) (*Transaction, error) {
	if previousID == "" && next == nil {
		return nil, nil
	}
	if next != nil {
		if err := next.Validate(); err != nil {
			return nil, err
		}
	}
	log := c.log.With().Str("previous", previousID).Logger()
	if next != nil {
		log = log.With().Str("next", next.ID).Str("kind", string(next.Kind)).Logger()
	}

	var applied *Transaction
	err := c.retry(ctx, log, func() error {
		var err error
		applied, err = c.unit(ctx, previousID, next)
		return err
	})
	if err != nil {
		log.Debug().Err(err).Msg("ledger unit failed")
		return nil, err
	}
	log.Debug().Msg("ledger unit committed")
	return applied, nil
}

// unit is a single try of a ledger unit.
func (c *Coordinator) unit(ctx context.Context, previousID string, next *Transaction) (*Transaction, error) {
	var applied *Transaction
	err := c.store.Update(ctx, func(tx Tx) error {
		applied = nil
		balances, stock := balanceLedger{tx}, inventoryLedger{tx}

		if previousID != "" {
			previous, err := tx.Transaction(previousID)
			if err != nil {
				return err
			}
			if err := stock.reverse(previous); err != nil {
				return fmt.Errorf("cannot reverse %s %s: %w", previous.Kind, previous.ID, err)
			}
			if err := balances.reverse(previous); err != nil {
				return fmt.Errorf("cannot reverse %s %s: %w", previous.Kind, previous.ID, err)
			}
			if err := tx.DeleteTransaction(previous.ID); err != nil {
				return err
			}
		}

		if next == nil {
			return nil
		}
		if next.ID != previousID {
			_, err := tx.Transaction(next.ID)
			switch {
			case err == nil:
				return fmt.Errorf("%w: transaction %s already exists", ErrValidation, next.ID)
			case !isNotFound(err):
				return err
			}
		}
		t := next.Clone()
		if err := stock.forward(&t); err != nil {
			return fmt.Errorf("cannot apply %s %s: %w", t.Kind, t.ID, err)
		}
		if err := balances.forward(&t); err != nil {
			return fmt.Errorf("cannot apply %s %s: %w", t.Kind, t.ID, err)
		}
		if err := tx.PutTransaction(t); err != nil {
			return err
		}
		applied = &t
		return nil
	})
	return applied, err
}

// retry calls fn until it succeeds, fails with something else than a
// conflict, or the attempts are exhausted.
func (c *Coordinator) retry(ctx context.Context, log zerolog.Logger, fn func() error) error {
	var err error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if werr := c.wait(ctx, attempt); werr != nil {
				return fmt.Errorf("%w: interrupted after %d attempts: %w", ErrConflict, attempt, werr)
			}
		}
		err = fn()
		if !errors.Is(err, ErrConflict) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("ledger unit conflicted, retrying")
	}
	return fmt.Errorf("gave up after %d attempts: %w", c.maxAttempts, err)
}

// wait sleeps before the given attempt: an exponential delay with full
// jitter.
func (c *Coordinator) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	delay := c.backoff << min(attempt-1, 10)
	timer := time.NewTimer(rand.N(delay) + 1)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AddContact creates a contact with a zero balance.
func (c *Coordinator) AddContact(ctx context.Context, role Role, name, phone, address string) (Contact, error) {
	name = strings.TrimSpace(name)
	if _, err := ParseRole(string(role)); err != nil {
		return Contact{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if name == "" {
		return Contact{}, fmt.Errorf("%w: a contact needs a name", ErrValidation)
	}
	contact := Contact{
		ID:        newID(),
		Role:      role,
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		Address:   strings.TrimSpace(address),
		Balance:   M(0),
		CreatedAt: c.now(),
	}
	err := c.retry(ctx, c.log, func() error {
		return c.store.Update(ctx, func(tx Tx) error {
			existing, err := tx.ContactByName(role, name)
			switch {
			case err == nil:
				return fmt.Errorf("%w: %s %q already exists (%s)", ErrValidation, role, name, existing.ID)
			case !isNotFound(err):
				return err
			}
			return tx.PutContact(contact)
		})
	})
	if err != nil {
		return Contact{}, err
	}
	c.log.Debug().Str("contact", contact.ID).Str("role", string(role)).Msg("contact added")
	return contact, nil
}

// UpdateContact changes the details of a contact. Its role and balance are
// left untouched.
func (c *Coordinator) UpdateContact(ctx context.Context, id, name, phone, address string) (Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contact{}, fmt.Errorf("%w: a contact needs a name", ErrValidation)
	}
	var updated Contact
	err := c.retry(ctx, c.log, func() error {
		return c.store.Update(ctx, func(tx Tx) error {
			contact, err := tx.Contact(id)
			if err != nil {
				return err
			}
			if other, err := tx.ContactByName(contact.Role, name); err == nil && other.ID != id {
				return fmt.Errorf("%w: %s %q already exists (%s)", ErrValidation, contact.Role, name, other.ID)
			} else if err != nil && !isNotFound(err) {
				return err
			}
			contact.Name = name
			contact.Phone = strings.TrimSpace(phone)
			contact.Address = strings.TrimSpace(address)
			updated = contact
			return tx.PutContact(contact)
		})
	})
	return updated, err
}

// AddItem creates an inventory item with an empty stock.
func (c *Coordinator) AddItem(ctx context.Context, name, unit string, price Money) (InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return InventoryItem{}, fmt.Errorf("%w: an item needs a name", ErrValidation)
	}
	if price.IsNegative() {
		return InventoryItem{}, fmt.Errorf("%w: price cannot be negative, got %s", ErrValidation, price)
	}
	item := InventoryItem{
		ID:                newID(),
		Name:              name,
		Unit:              strings.TrimSpace(unit),
		Quantity:          Q(0),
		LastPurchasePrice: price,
	}
	err := c.retry(ctx, c.log, func() error {
		return c.store.Update(ctx, func(tx Tx) error {
			existing, err := tx.ItemByName(name)
			switch {
			case err == nil:
				return fmt.Errorf("%w: item %q already exists (%s)", ErrValidation, name, existing.ID)
			case !isNotFound(err):
				return err
			}
			return tx.PutItem(item)
		})
	})
	if err != nil {
		return InventoryItem{}, err
	}
	return item, nil
}

// Snapshot returns the current read-only collections.
func (c *Coordinator) Snapshot(ctx context.Context) (*Snapshot, error) {
	return c.store.Snapshot(ctx)
}
