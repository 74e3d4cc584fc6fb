package store

import (
	"fmt"

	"morphire/internal/identity"
)

// PersistenceError reports a failed read, decode, or write of a document.
type PersistenceError struct {
	Op  string
	Key identity.StorageKey
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
