package files

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("file not found")
	ErrConflict     = errors.New("file id already exists")
	ErrStorage      = errors.New("storage error")
)

// ValidationError es culpa del caller (400). Unwrap => ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StorageError envuelve fallas de conexión/query (500). errors.Is(err, ErrStorage)
// es true y Unwrap llega al error del driver.
type StorageError struct {
	Op       string
	Category Category
	Err      error
}

func (e *StorageError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Category, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
