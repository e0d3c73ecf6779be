package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrFieldNotFound     = fmt.Errorf("field %w", ErrNotFound)
	ErrStepNotFound      = fmt.Errorf("step %w", ErrNotFound)
	ErrFormNotFound      = fmt.Errorf("form %w", ErrNotFound)
	ErrNoForm            = errors.New("no form is open")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrDuplicateOption   = errors.New("duplicate option value")
	ErrDanglingReference = errors.New("step references unknown field")
	ErrInvalidField      = errors.New("invalid field")
	ErrInvalidSubmission = errors.New("invalid submission")
)

// IndexError reports a reorder or placement index outside the sequence
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Unwrap lets errors.Is match ErrIndexOutOfRange
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
