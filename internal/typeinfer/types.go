// Package typeinfer classifies tabular columns into one of four semantic
// kinds and coerces them to the canonical storage for that kind.
package typeinfer

import (
	"fmt"
	"strings"
)

// InferredType is the semantic kind assigned to a column.
type InferredType int

const (
	Numeric InferredType = iota
	Datetime
	Categorical
	Text
)

func (t InferredType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Datetime:
		return "datetime"
	case Categorical:
		return "categorical"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Valid reports whether t is one of the four known kinds.
func (t InferredType) Valid() bool { return t >= Numeric && t <= Text }

// ParseInferredType maps "numeric", "datetime", "categorical" or "text"
// (any case) to an InferredType.
func ParseInferredType(s string) (InferredType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric":
		return Numeric, nil
	case "datetime":
		return Datetime, nil
	case "categorical":
		return Categorical, nil
	case "text":
		return Text, nil
	}
	return 0, fmt.Errorf("unknown column type %q (use numeric|datetime|categorical|text)", s)
}

// Storage is the concrete encoding a column currently uses.
type Storage int

const (
	// StorageObject is the open/generic representation produced by readers
	// before any coercion.
	StorageObject Storage = iota
	StorageInt
	StorageFloat
	StorageDatetime
	StorageCategorical
	// StorageString is the explicit string representation produced by text
	// coercion. Unlike StorageObject it is never reclassified by cardinality.
	StorageString
)

func (s Storage) String() string {
	switch s {
	case StorageObject:
		return "object"
	case StorageInt:
		return "int64"
	case StorageFloat:
		return "float64"
	case StorageDatetime:
		return "datetime"
	case StorageCategorical:
		return "category"
	case StorageString:
		return "string"
	default:
		return fmt.Sprintf("storage(%d)", int(s))
	}
}

// IsNumeric reports integer or floating-point storage.
func (s Storage) IsNumeric() bool { return s == StorageInt || s == StorageFloat }
