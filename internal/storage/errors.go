package storage

import "errors"

// ErrNotFound is returned when no record exists under the requested key.
var ErrNotFound = errors.New("record not found")

// StorageError wraps failures of the local store. Callers must not treat
// a write as durable unless it returned nil: an edit that cannot be
// persisted locally is reported, never swallowed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
