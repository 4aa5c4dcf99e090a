package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

func nums(vals ...any) []typeinfer.Value {
	out := make([]typeinfer.Value, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = typeinfer.Missing()
		case int:
			out[i] = typeinfer.Num(float64(x))
		case float64:
			out[i] = typeinfer.Num(x)
		}
	}
	return out
}

func sample() *typeinfer.Dataset {
	return typeinfer.MustDataset(
		&typeinfer.Column{Name: "qty", Storage: typeinfer.StorageInt, Values: nums(1, 2, nil, 5)},
		typeinfer.NewObjectColumn("color", []string{"red", "", "red", "blue"}),
		&typeinfer.Column{Name: "seen", Storage: typeinfer.StorageDatetime, Values: nums(nil, nil, nil, nil)},
	)
}

func TestParseStrategies(t *testing.T) {
	m, err := ParseMissingStrategy(" Median ")
	require.NoError(t, err)
	assert.Equal(t, MissingMedian, m)
	_, err = ParseMissingStrategy("zero")
	assert.Error(t, err)

	a, err := ParseOutlierAction("")
	require.NoError(t, err)
	assert.Equal(t, OutliersKeep, a)
	_, err = ParseOutlierAction("clip")
	assert.Error(t, err)
}

func TestHandleMissingMean(t *testing.T) {
	ds := sample()
	var log Log
	out, err := HandleMissing(ds, MissingMean, &log)
	require.NoError(t, err)

	qty, _ := out.Column("qty")
	f, ok := qty.Values[2].Float()
	require.True(t, ok)
	assert.InDelta(t, 8.0/3.0, f, 1e-9)
	assert.Equal(t, typeinfer.StorageFloat, qty.Storage)

	color, _ := out.Column("color")
	s, _ := color.Values[1].Text()
	assert.Equal(t, "red", s)

	seen, _ := out.Column("seen")
	assert.Equal(t, 4, seen.MissingCount(), "datetime columns are left alone")

	orig, _ := ds.Column("qty")
	assert.True(t, orig.Values[2].IsMissing(), "input must not change")
	assert.Len(t, log.Entries, 2)
	assert.Contains(t, log.Lines()[0], "impute 'qty'")
}

func TestHandleMissingMedianKeepsIntegers(t *testing.T) {
	ds := typeinfer.MustDataset(&typeinfer.Column{Name: "n", Storage: typeinfer.StorageInt, Values: nums(1, nil, 3, 10)})
	out, err := HandleMissing(ds, MissingMedian, nil)
	require.NoError(t, err)
	n, _ := out.Column("n")
	f, _ := n.Values[1].Float()
	assert.Equal(t, 3.0, f)
	assert.Equal(t, typeinfer.StorageInt, n.Storage)
}

func TestHandleMissingDropIgnoresDatetime(t *testing.T) {
	out, err := HandleMissing(sample(), MissingDrop, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
}

func TestHandleMissingKeep(t *testing.T) {
	ds := sample()
	out, err := HandleMissing(ds, MissingKeep, nil)
	require.NoError(t, err)
	assert.Same(t, ds, out)

	_, err = HandleMissing(ds, MissingStrategy("bogus"), nil)
	assert.Error(t, err)
}

func outlierSet() *typeinfer.Dataset {
	return typeinfer.MustDataset(
		&typeinfer.Column{Name: "v", Storage: typeinfer.StorageInt, Values: nums(10, 11, 12, 13, 14, nil, 100)},
		typeinfer.NewObjectColumn("tag", []string{"a", "b", "c", "d", "e", "f", "g"}),
	)
}

func TestIQRFences(t *testing.T) {
	v, _ := outlierSet().Column("v")
	f, ok := IQRFences(v)
	require.True(t, ok)
	assert.Equal(t, 11.25, f.Q1)
	assert.Equal(t, 13.75, f.Q3)
	assert.Equal(t, 7.5, f.Lower)
	assert.Equal(t, 17.5, f.Upper)
	assert.Equal(t, []int{6}, OutlierRows(v))
}

func TestHandleOutliersRemove(t *testing.T) {
	var log Log
	out, err := HandleOutliers(outlierSet(), "v", OutliersRemove, &log)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Rows(), "missing rows survive removal")
	assert.Contains(t, log.Lines()[0], "removed 1 rows")
}

func TestHandleOutliersCap(t *testing.T) {
	ds := outlierSet()
	out, err := HandleOutliers(ds, "v", OutliersCap, nil)
	require.NoError(t, err)
	v, _ := out.Column("v")
	f, _ := v.Values[6].Float()
	assert.Equal(t, 17.5, f)
	assert.Equal(t, typeinfer.StorageFloat, v.Storage)

	orig, _ := ds.Column("v")
	f, _ = orig.Values[6].Float()
	assert.Equal(t, 100.0, f)
}

func TestHandleOutliersSkipsNonNumeric(t *testing.T) {
	ds := outlierSet()
	var log Log
	out, err := HandleOutliers(ds, "tag", OutliersRemove, &log)
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Contains(t, log.Lines()[0], "skipped non-numeric")

	_, err = HandleOutliers(ds, "nope", OutliersCap, nil)
	var mce *typeinfer.MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestHandleAllOutliers(t *testing.T) {
	out, err := HandleAllOutliers(outlierSet(), OutliersRemove, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Rows())
}
