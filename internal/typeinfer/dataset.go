package typeinfer

import (
	"errors"
	"fmt"
)

// Column is a named, ordered sequence of values sharing one storage type.
// A Column that belongs to a Dataset must not be modified; coercion always
// returns a new Column.
type Column struct {
	Name    string
	Storage Storage
	Values  []Value
}

// NewObjectColumn builds an open/generic column from raw strings. Empty
// strings become missing values.
func NewObjectColumn(name string, raw []string) *Column {
	vals := make([]Value, len(raw))
	for i, s := range raw {
		if s == "" {
			continue
		}
		vals[i] = Str(s)
	}
	return &Column{Name: name, Storage: StorageObject, Values: vals}
}

// Len returns the row count.
func (c *Column) Len() int { return len(c.Values) }

// DistinctCount counts distinct non-missing values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{}, len(c.Values))
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		seen[v.key()] = struct{}{}
	}
	return len(seen)
}

// MissingCount counts missing values.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// CardinalityRatio returns distinct/rows. ok is false for an empty column.
func (c *Column) CardinalityRatio() (ratio float64, ok bool) {
	if len(c.Values) == 0 {
		return 0, false
	}
	return float64(c.DistinctCount()) / float64(len(c.Values)), true
}

// Clone returns a deep copy with a fresh value slice.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Storage: c.Storage, Values: vals}
}

// Dataset is an immutable, ordered collection of columns sharing a row count.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewDataset validates and assembles columns. Names must be unique and all
// columns must have the same length.
func NewDataset(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := ds.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), ds.rows)
		}
		ds.index[c.Name] = i
		ds.cols = append(ds.cols, c)
	}
	return ds, nil
}

// MustDataset is NewDataset for fixtures; it panics on error.
func MustDataset(cols ...*Column) *Dataset {
	ds, err := NewDataset(cols...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Rows returns the shared row count.
func (d *Dataset) Rows() int { return d.rows }

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int { return len(d.cols) }

// Columns returns the columns in order. The slice is a copy; the columns
// are shared and must be treated as read-only.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// With returns a copy of the dataset where the column of the same name is
// replaced by col. Other columns are shared, not copied.
func (d *Dataset) With(col *Column) (*Dataset, error) {
	i, ok := d.index[col.Name]
	if !ok {
		return nil, &MissingColumnError{Column: col.Name}
	}
	if col.Len() != d.rows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), d.rows)
	}
	out := d.shallowCopy()
	out.cols[i] = col
	return out, nil
}

// Select returns a dataset restricted to the named columns, in that order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	var errs []error
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := d.Column(n)
		if !ok {
			errs = append(errs, &MissingColumnError{Column: n})
			continue
		}
		cols = append(cols, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(cols) == 0 {
		return &Dataset{index: map[string]int{}}, nil
	}
	return NewDataset(cols...)
}

// FilterRows returns a dataset keeping only the rows for which keep is true.
// Every column is rebuilt, storage types are preserved.
func (d *Dataset) FilterRows(keep func(row int) bool) *Dataset {
	out := &Dataset{index: make(map[string]int, len(d.cols))}
	for i, c := range d.cols {
		nc := &Column{Name: c.Name, Storage: c.Storage, Values: make([]Value, 0, len(c.Values))}
		for r, v := range c.Values {
			if keep(r) {
				nc.Values = append(nc.Values, v)
			}
		}
		out.cols = append(out.cols, nc)
		out.index[c.Name] = i
		out.rows = nc.Len()
	}
	return out
}

func (d *Dataset) shallowCopy() *Dataset {
	out := &Dataset{
		cols:  make([]*Column, len(d.cols)),
		index: make(map[string]int, len(d.index)),
		rows:  d.rows,
	}
	copy(out.cols, d.cols)
	for k, v := range d.index {
		out.index[k] = v
	}
	return out
}
