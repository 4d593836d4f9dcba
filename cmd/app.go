// Package cmd implements the CLI application to keep the books of a small
// business.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/bookkeeper"
	"github.com/etnz/bookkeeper/sqlstore"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&tradeCmd{kind: bookkeeper.Sale}, "transactions")
	c.Register(&tradeCmd{kind: bookkeeper.Purchase}, "transactions")
	c.Register(&entryCmd{kind: bookkeeper.Expense}, "transactions")
	c.Register(&entryCmd{kind: bookkeeper.Capital}, "transactions")
	c.Register(&settleCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&contactsCmd{}, "contacts")
	c.Register(&addContactCmd{}, "contacts")
	c.Register(&editContactCmd{}, "contacts")
	c.Register(&statementCmd{}, "contacts")

	c.Register(&itemsCmd{}, "inventory")
	c.Register(&addItemCmd{}, "inventory")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&auditCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&serveCmd{}, "data")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	dbPath      = flag.String("db", "books.db", "Path to the SQLite database of the books. Env: "+EnvDB)
	currency    = flag.String("currency", "USD", "ISO code of the currency amounts are displayed in. Env: "+EnvCurrency)
	Verbose     = flag.Bool("v", false, "Log the ledger units and retries. Env: "+EnvLogLevel+"=debug")
	maxAttempts = flag.Int("max-attempts", bookkeeper.DefaultMaxAttempts, "How many times a conflicting change is tried. Env: "+EnvMaxAttempts)
)

// out is where commands print their results.
var out io.Writer = os.Stdout

// Config is the resolved configuration of a run.
type Config struct {
	DB          string
	Currency    string
	LogLevel    zerolog.Level
	MaxAttempts int
}

// LoadConfig reads the configuration from the environment, optionally
// seeded by a .env file in the working directory. Flags set on the command
// line win over the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: cannot load .env file: %v\n", err)
	}
	cfg, err := configFromEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *dbPath
		case "currency":
			cfg.Currency = *currency
		case "v":
			if *Verbose {
				cfg.LogLevel = zerolog.DebugLevel
			}
		case "max-attempts":
			cfg.MaxAttempts = *maxAttempts
		}
	})
	return cfg, nil
}

// configFromEnv returns the flag defaults overridden by the environment.
func configFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		DB:          *dbPath,
		Currency:    *currency,
		LogLevel:    zerolog.InfoLevel,
		MaxAttempts: *maxAttempts,
	}
	if v := getenv(EnvDB); v != "" {
		cfg.DB = v
	}
	if v := getenv(EnvCurrency); v != "" {
		cfg.Currency = strings.ToUpper(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}
	if v := getenv(EnvMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid %s %q: want a positive integer", EnvMaxAttempts, v)
		}
		cfg.MaxAttempts = n
	}
	return cfg, nil
}

// Logger returns the console logger of the CLI.
func (c Config) Logger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(c.LogLevel).With().Timestamp().Logger()
}

// books is an open set of books.
type books struct {
	*bookkeeper.Coordinator
	store *sqlstore.Store
	cfg   Config
	log   zerolog.Logger
}

// openBooks is the central function to open the books of the configured
// database.
func openBooks(ctx context.Context) (*books, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger()
	store, err := sqlstore.Open(ctx, cfg.DB, sqlstore.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("cannot open books %q: %w", cfg.DB, err)
	}
	return &books{
		Coordinator: bookkeeper.NewCoordinator(store,
			bookkeeper.WithLogger(log),
			bookkeeper.WithMaxAttempts(cfg.MaxAttempts),
		),
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// Close releases the database.
func (b *books) Close() error { return b.store.Close() }

// withBooks opens the books, runs fn and closes them, reporting errors on
// stderr.
func withBooks(ctx context.Context, fn func(b *books) error) subcommands.ExitStatus {
	b, err := openBooks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer b.Close()
	if err := fn(b); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
