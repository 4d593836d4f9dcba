package bookkeeper

import (
	"errors"
	"fmt"
)

// Error taxonomy of a ledger unit. Errors returned by this package and by
// Store implementations wrap exactly one of these and are meant to be
// tested with errors.Is.
//
// The only exception is the cancellation of the caller's context: a unit
// stopped by it returns context.Canceled or context.DeadlineExceeded as is
// (possibly joined with ErrConflict when it interrupts the retries).
var (
	// ErrValidation reports a malformed request. It is never retried.
	ErrValidation = errors.New("invalid transaction")
	// ErrNotFound reports a referenced transaction, contact or item that
	// does not exist (anymore).
	ErrNotFound = errors.New("not found")
	// ErrConflict reports that a record read by the unit changed before it
	// could commit. The coordinator retries it; once attempts are exhausted
	// it reaches the caller, who may submit again.
	ErrConflict = errors.New("concurrent modification")
	// ErrStorage reports a failure of the underlying persistence.
	ErrStorage = errors.New("storage failure")
)

// IsRetryable reports whether err may succeed if the same request is
// submitted again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// NotFoundError reports a missing record so that it matches ErrNotFound.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StorageError wraps a persistence failure so that it matches ErrStorage
// while keeping the driver error reachable with errors.As.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// ConflictError wraps a detected conflict so that it matches ErrConflict.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
