package bookkeeper

import (
	"errors"

	"github.com/google/uuid"
)

// newID returns a fresh opaque record identifier.
func newID() string { return uuid.NewString() }

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
