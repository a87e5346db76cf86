package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotOpen         = errors.New("store: not open")
	ErrIndexOutOfRange = errors.New("store: record index out of range")
	ErrRecordNotFound  = errors.New("store: record not found")
)

// PersistenceError wraps a local storage read/write failure. The state on
// disk is unchanged when one of these is returned from a mutation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
