package typeinfer

import (
	"errors"
	"fmt"
)

var (
	// ErrNilColumn is wrapped by ConversionError when there is no column to coerce.
	ErrNilColumn = errors.New("no column to coerce")
	// ErrUnknownType is wrapped by ConversionError for a target outside the four kinds.
	ErrUnknownType = errors.New("unknown target type")
)

// MissingColumnError indicates a required column is absent from the dataset.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column '%s' not found in the dataset", e.Column)
}

// ConversionError indicates a column could not be brought to the required type.
type ConversionError struct {
	Column   string
	Required InferredType
	Actual   InferredType
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("column '%s' could not be converted to %s: %v", e.Column, e.Required, e.Err)
	}
	return fmt.Sprintf("column '%s' could not be converted to %s (got %s)", e.Column, e.Required, e.Actual)
}

func (e *ConversionError) Unwrap() error { return e.Err }
