package typeinfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatasetValidates(t *testing.T) {
	_, err := NewDataset(NewObjectColumn("a", []string{"1"}), NewObjectColumn("b", []string{"1", "2"}))
	assert.ErrorContains(t, err, "expected 1")

	_, err = NewDataset(NewObjectColumn("a", nil), NewObjectColumn("a", nil))
	assert.ErrorContains(t, err, "duplicate")
}

func TestDatasetWithCopies(t *testing.T) {
	a := NewObjectColumn("a", []string{"1", "2"})
	b := NewObjectColumn("b", []string{"x", "y"})
	ds := MustDataset(a, b)

	repl := &Column{Name: "a", Storage: StorageInt, Values: []Value{Num(1), Num(2)}}
	next, err := ds.With(repl)
	require.NoError(t, err)

	got, _ := ds.Column("a")
	assert.Same(t, a, got)
	got, _ = next.Column("a")
	assert.Same(t, repl, got)

	_, err = ds.With(&Column{Name: "zzz"})
	var mce *MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestDatasetSelectAndFilter(t *testing.T) {
	ds := MustDataset(
		NewObjectColumn("a", []string{"1", "2", "3"}),
		NewObjectColumn("b", []string{"x", "y", "z"}),
	)
	sel, err := ds.Select("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, sel.Names())

	_, err = ds.Select("b", "nope")
	assert.Error(t, err)

	f := ds.FilterRows(func(r int) bool { return r != 1 })
	assert.Equal(t, 2, f.Rows())
	col, _ := f.Column("b")
	assert.Equal(t, "z", col.Values[1].String())
	assert.Equal(t, 3, ds.Rows(), "filter leaves the source intact")
}
