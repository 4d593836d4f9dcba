// Package sqlstore implements bookkeeper.Store on a SQLite database.
//
// Each ledger unit runs in one SQL transaction. Rows carry a version
// column: updates and deletes only match the version the unit read, so a
// row changed by another process since it was read makes the unit fail with
// bookkeeper.ErrConflict. Busy or locked databases and unique-constraint
// violations on names are reported as conflicts too, so that the
// coordinator retries them.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/bookkeeper"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a bookkeeper.Store backed by SQLite.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger of the store.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens, creating it if needed, the database at path and applies the
// pending schema migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, bookkeeper.StorageError("open "+path, err)
	}
	// a single connection serializes the units of this process; version
	// checks catch the other processes.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, bookkeeper.StorageError("open "+path, err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Debug().Str("path", path).Msg("ledger database opened")
	return s, nil
}

// migrate applies the embedded migrations.
func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("cannot read migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return bookkeeper.StorageError("migration driver", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return bookkeeper.StorageError("migration setup", err)
	}
	// m.Close would close the shared database handle.
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.log.Debug().Msg("no new database migrations to apply")
			return nil
		}
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return bookkeeper.StorageError("migrate", fmt.Errorf("database is dirty at version %d, fix it manually", dirty.Version))
		}
		return bookkeeper.StorageError("migrate", err)
	}
	version, _, _ := m.Version()
	s.log.Info().Uint("version", version).Msg("database migrations applied")
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update implements bookkeeper.Store.
func (s *Store) Update(ctx context.Context, fn func(bookkeeper.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	t := &tx{ctx: ctx, tx: sqlTx, rows: make(map[rowKey]rowState)}
	if err := fn(t); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Snapshot implements bookkeeper.Store. The three collections are read in
// one transaction.
func (s *Store) Snapshot(ctx context.Context) (*bookkeeper.Snapshot, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin", err)
	}
	defer sqlTx.Rollback()

	snap := &bookkeeper.Snapshot{}
	if snap.Contacts, err = queryContacts(ctx, sqlTx); err != nil {
		return nil, err
	}
	if snap.Items, err = queryItems(ctx, sqlTx); err != nil {
		return nil, err
	}
	if snap.Transactions, err = queryTransactions(ctx, sqlTx, ""); err != nil {
		return nil, err
	}
	snap.Sort()
	return snap, nil
}

// classify maps a driver error to the bookkeeper error taxonomy.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch code := se.Code(); {
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return bookkeeper.ConflictError("%s: %v", op, err)
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return bookkeeper.ConflictError("%s: %v", op, err)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE constraint failed"):
			return bookkeeper.ConflictError("%s: %v", op, err)
		}
	}
	return bookkeeper.StorageError(op, err)
}
