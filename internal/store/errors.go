package store

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by mutations on a store after Close
var ErrClosed = errors.New("store is closed")

// NotFoundError indicates no entity has the given ID
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DuplicateNameError indicates a category name is already taken,
// compared case-insensitively
type DuplicateNameError struct {
	Name string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("a category named %q already exists", e.Name)
}

// PersistenceError wraps a failure of the key-value backend
type PersistenceError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Key, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateName reports whether err is or wraps a DuplicateNameError
func IsDuplicateName(err error) bool {
	var dup DuplicateNameError
	return errors.As(err, &dup)
}

// IsPersistence reports whether err is or wraps a PersistenceError
func IsPersistence(err error) bool {
	var pe PersistenceError
	return errors.As(err, &pe)
}
