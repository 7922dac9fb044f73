package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("concurrent modification")
	ErrAuditAppend  = errors.New("inventory log append failed")
)

// NotFoundError reports an operation that referenced a missing record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %q not found", capitalize(e.Entity), e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateKeyError names the unique field and the value that collided.
type DuplicateKeyError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("a %s with %s %q already exists", e.Entity, e.Field, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// ValidationError rejects input the core refuses to coerce.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
