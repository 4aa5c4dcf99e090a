package typeinfer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectColumn(name string, n, distinct int) *Column {
	raw := make([]string, n)
	for i := range raw {
		raw[i] = fmt.Sprintf("v%d", i%distinct)
	}
	return NewObjectColumn(name, raw)
}

func TestInferTypeNumericIgnoresCardinality(t *testing.T) {
	vals := make([]Value, 1000)
	for i := range vals {
		vals[i] = Num(float64(i % 2))
	}
	assert.Equal(t, Numeric, InferType(&Column{Name: "flag", Storage: StorageInt, Values: vals}))
	assert.Equal(t, Numeric, InferType(&Column{Name: "flag", Storage: StorageFloat, Values: vals}))
}

func TestInferTypeStorageOrder(t *testing.T) {
	ts := []Value{Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	assert.Equal(t, Datetime, InferType(&Column{Storage: StorageDatetime, Values: ts}))

	unique := objectColumn("id", 10, 10)
	unique.Storage = StorageCategorical
	assert.Equal(t, Categorical, InferType(unique), "explicit categorical is not revalidated")

	str := objectColumn("s", 10, 1)
	str.Storage = StorageString
	assert.Equal(t, Text, InferType(str))
}

func TestInferTypeCardinalityBoundary(t *testing.T) {
	assert.Equal(t, Categorical, InferType(objectColumn("c", 1000, 499)))
	assert.Equal(t, Text, InferType(objectColumn("c", 1000, 500)))
	assert.Equal(t, Text, InferType(objectColumn("c", 1000, 1000)))
}

func TestInferTypeEmptyColumn(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, Text, InferType(NewObjectColumn("empty", nil)))
	})
	assert.Equal(t, Text, InferType(nil))
}

func TestDistinctIgnoresMissing(t *testing.T) {
	c := NewObjectColumn("c", []string{"a", "", "", "", "a", "b"})
	assert.Equal(t, 2, c.DistinctCount())
	assert.Equal(t, 3, c.MissingCount())
	r, ok := c.CardinalityRatio()
	require.True(t, ok)
	assert.InDelta(t, 2.0/6.0, r, 1e-9)
}

func TestPreprocessIdempotent(t *testing.T) {
	cases := []*Column{
		NewObjectColumn("cat", []string{"a", "b", "a", "a", "b", "a"}),
		NewObjectColumn("txt", []string{"alpha", "beta", "gamma"}),
		{Name: "num", Storage: StorageFloat, Values: []Value{Num(1.5), Missing(), Num(3)}},
		{Name: "dt", Storage: StorageDatetime, Values: []Value{Timestamp(time.Unix(0, 0)), Missing()}},
		NewObjectColumn("empty", nil),
	}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			once, err := Preprocess(c)
			require.NoError(t, err)
			twice, err := Preprocess(once)
			require.NoError(t, err)
			assert.Equal(t, InferType(once), InferType(twice))
			assert.Equal(t, once.Storage, twice.Storage)
			require.Len(t, twice.Values, len(once.Values))
			for i := range once.Values {
				assert.True(t, once.Values[i].Equal(twice.Values[i]), "row %d", i)
			}
		})
	}
}

func TestPreprocessRetagsWithoutAlteringValues(t *testing.T) {
	in := NewObjectColumn("city", []string{"Oslo", "Oslo", "Rome", "Oslo", "Rome"})
	out, err := Preprocess(in)
	require.NoError(t, err)
	assert.Equal(t, StorageCategorical, out.Storage)
	assert.Equal(t, StorageObject, in.Storage, "input must not be modified")
	for i := range in.Values {
		assert.True(t, in.Values[i].Equal(out.Values[i]))
	}

	txt, err := Preprocess(NewObjectColumn("note", []string{"x", "y"}))
	require.NoError(t, err)
	assert.Equal(t, StorageString, txt.Storage)
}

func TestCoerceNumeric(t *testing.T) {
	out, err := Coerce(NewObjectColumn("n", []string{"1", "2", "3"}), Numeric, DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, StorageInt, out.Storage)

	out, err = Coerce(NewObjectColumn("n", []string{"1.5", "bad", "12%"}), Numeric, DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, StorageFloat, out.Storage)
	f, ok := out.Values[0].Float()
	require.True(t, ok)
	assert.Equal(t, 1.5, f)
	assert.True(t, out.Values[1].IsMissing())
	f, _ = out.Values[2].Float()
	assert.Equal(t, 12.0, f)
}

func TestCoerceNumericLocale(t *testing.T) {
	opt := ParseOptions{DecimalSeparator: ',', ThousandsSeparator: '.'}
	out, err := Coerce(NewObjectColumn("n", []string{"1.000,5", "0,25"}), Numeric, opt)
	require.NoError(t, err)
	a, _ := out.Values[0].Float()
	b, _ := out.Values[1].Float()
	assert.Equal(t, 1000.5, a)
	assert.Equal(t, 0.25, b)
}

func TestCoerceDatetime(t *testing.T) {
	out, err := Coerce(NewObjectColumn("d", []string{"2024-03-01", "not a date", "2024-03-02T10:00:00Z"}), Datetime, DefaultParseOptions())
	require.NoError(t, err)
	assert.Equal(t, StorageDatetime, out.Storage)
	ts, ok := out.Values[0].Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ts)
	assert.True(t, out.Values[1].IsMissing())
	assert.Equal(t, Datetime, InferType(out))
}

func TestCoerceUnknownTarget(t *testing.T) {
	_, err := Coerce(NewObjectColumn("x", []string{"a"}), InferredType(42), DefaultParseOptions())
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "x", ce.Column)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = Preprocess(nil)
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNilColumn)
}

func TestCheckAndPreprocessCoercesRequired(t *testing.T) {
	age := NewObjectColumn("age", []string{"34", "twelve", "29"})
	name := NewObjectColumn("name", []string{"ann", "bob", "cy"})
	ds := MustDataset(age, name)

	out, err := CheckAndPreprocess(ds, map[string]InferredType{"age": Numeric})
	require.NoError(t, err)

	got, ok := out.Column("age")
	require.True(t, ok)
	assert.Equal(t, Numeric, InferType(got))
	a, _ := got.Values[0].Float()
	c, _ := got.Values[2].Float()
	assert.Equal(t, 34.0, a)
	assert.True(t, got.Values[1].IsMissing())
	assert.Equal(t, 29.0, c)

	orig, _ := ds.Column("age")
	assert.Same(t, age, orig, "caller's dataset keeps its column")
	assert.Equal(t, StorageObject, orig.Storage)
	passthrough, _ := out.Column("name")
	assert.Same(t, name, passthrough, "untouched columns are shared")
}

func TestCheckAndPreprocessMissingColumn(t *testing.T) {
	age := NewObjectColumn("age", []string{"1", "2"})
	ds := MustDataset(age)

	out, err := CheckAndPreprocess(ds, map[string]InferredType{"missing_col": Numeric})
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "missing_col", mce.Column)
	assert.Contains(t, err.Error(), "missing_col")

	require.NotNil(t, out)
	got, _ := out.Column("age")
	assert.Same(t, age, got)
}

func TestCheckAndPreprocessContinuesAfterFailure(t *testing.T) {
	ds := MustDataset(
		NewObjectColumn("a", []string{"1", "2"}),
		NewObjectColumn("b", []string{"x", "y"}),
	)
	out, err := CheckAndPreprocess(ds, map[string]InferredType{
		"a":    Numeric,
		"gone": Numeric,
		"b":    InferredType(9),
	})
	require.Error(t, err)

	var mce *MissingColumnError
	assert.True(t, errors.As(err, &mce))
	var ce *ConversionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "b", ce.Column)

	a, _ := out.Column("a")
	assert.Equal(t, Numeric, InferType(a), "successful coercions survive unrelated failures")
}

func TestCheckAndPreprocessCategoricalNoop(t *testing.T) {
	cat := &Column{Name: "c", Storage: StorageCategorical, Values: []Value{Str("x"), Str("y"), Missing()}}
	ds := MustDataset(cat)
	out, err := CheckAndPreprocess(ds, map[string]InferredType{"c": Categorical})
	require.NoError(t, err)
	got, _ := out.Column("c")
	assert.Same(t, cat, got)

	same, err := Coerce(cat, Categorical, DefaultParseOptions())
	require.NoError(t, err)
	assert.Same(t, cat, same)
}

func TestCheckAndPreprocessToText(t *testing.T) {
	ds := MustDataset(NewObjectColumn("c", []string{"a", "a", "a", "a", "b"}))
	out, err := CheckAndPreprocess(ds, map[string]InferredType{"c": Text})
	require.NoError(t, err)
	got, _ := out.Column("c")
	assert.Equal(t, StorageString, got.Storage)
}

func TestColumnsOfType(t *testing.T) {
	ds := MustDataset(
		&Column{Name: "n", Storage: StorageInt, Values: []Value{Num(1), Num(2)}},
		NewObjectColumn("s", []string{"a", "b"}),
		&Column{Name: "m", Storage: StorageFloat, Values: []Value{Num(1), Missing()}},
	)
	assert.Equal(t, []string{"n", "m"}, ColumnsOfType(ds, Numeric))
}

func TestParseInferredType(t *testing.T) {
	for in, want := range map[string]InferredType{"numeric": Numeric, "DateTime": Datetime, " Categorical ": Categorical, "TEXT": Text} {
		got, err := ParseInferredType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, bad := range []string{"blob", "number", "date", "category", "string", ""} {
		_, err := ParseInferredType(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseNumberPercent(t *testing.T) {
	opt := DefaultParseOptions()
	v, ok := ParseNumber("12%", opt)
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
	v, ok = ParseNumber(" 7.5 % ", opt)
	require.True(t, ok)
	assert.Equal(t, 7.5, v)
	for _, bad := range []string{"1%2", "%5", "3%%"} {
		_, ok := ParseNumber(bad, opt)
		assert.False(t, ok, bad)
	}
}
