package schedule

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user declines a prompt. Nothing has been
// persisted.
var ErrCancelled = errors.New("mutation cancelled")

// PersistenceError wraps a failed call to the persistence collaborator. The
// cached collection is left as it was before the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
