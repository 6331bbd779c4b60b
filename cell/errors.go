package cell

import (
	"errors"
	"fmt"
)

// Error kinds. Every decode error matches exactly one of these with
// errors.Is.
var (
	ErrUnknownType          = errors.New("cell: unknown type")
	ErrTruncatedHeader      = errors.New("cell: truncated header")
	ErrTruncatedPayload     = errors.New("cell: truncated payload")
	ErrMalformed            = errors.New("cell: malformed substructure")
	ErrUnsupported          = errors.New("cell: unsupported operation")
	ErrConflictingArguments = errors.New("cell: conflicting arguments")
)

// SizeError reports a length or count that did not match the bytes present.
type SizeError struct {
	Kind     error  // ErrTruncatedHeader, ErrTruncatedPayload or ErrMalformed
	Cell     string // registry name of the cell being decoded
	Field    string
	Expected int
	Actual   int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: %s %s: expected %d, got %d", e.Kind, e.Cell, e.Field, e.Expected, e.Actual)
}

func (e *SizeError) Unwrap() error {
	return e.Kind
}

func malformed(cell, field string, expected, actual int) error {
	return &SizeError{Kind: ErrMalformed, Cell: cell, Field: field, Expected: expected, Actual: actual}
}
