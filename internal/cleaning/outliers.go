package cleaning

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// Fences are the IQR bounds of a numeric column.
type Fences struct {
	Q1, Q3       float64
	Lower, Upper float64
}

// Outside reports whether x falls outside the fences.
func (f Fences) Outside(x float64) bool { return x < f.Lower || x > f.Upper }

// IQRFences computes Q1-1.5*IQR and Q3+1.5*IQR over the present values of
// col using linearly interpolated quantiles. ok is false without values.
func IQRFences(col *typeinfer.Column) (f Fences, ok bool) {
	vals := analysis.NumericValues(col)
	if len(vals) == 0 {
		return Fences{}, false
	}
	sort.Float64s(vals)
	f.Q1 = analysis.Quantile(vals, 0.25)
	f.Q3 = analysis.Quantile(vals, 0.75)
	iqr := f.Q3 - f.Q1
	f.Lower = f.Q1 - 1.5*iqr
	f.Upper = f.Q3 + 1.5*iqr
	return f, true
}

// OutlierRows lists the rows of col outside its fences.
func OutlierRows(col *typeinfer.Column) []int {
	f, ok := IQRFences(col)
	if !ok {
		return nil
	}
	var rows []int
	for i, v := range col.Values {
		if x, ok := v.Float(); ok && f.Outside(x) {
			rows = append(rows, i)
		}
	}
	return rows
}

// HandleOutliers applies action to one column. A non-numeric column is
// skipped with a log note, not an error. Rows with a missing value are
// never removed by the remove action.
func HandleOutliers(ds *typeinfer.Dataset, column string, action OutlierAction, log *Log) (*typeinfer.Dataset, error) {
	if log == nil {
		log = &Log{}
	}
	col, ok := ds.Column(column)
	if !ok {
		return nil, &typeinfer.MissingColumnError{Column: column}
	}
	if typeinfer.InferType(col) != typeinfer.Numeric {
		log.add(column, "outliers", "skipped non-numeric column")
		return ds, nil
	}
	f, ok := IQRFences(col)
	if !ok {
		log.add(column, "outliers", "no values to check")
		return ds, nil
	}
	switch action {
	case OutliersRemove:
		out := ds.FilterRows(func(i int) bool {
			x, ok := col.Values[i].Float()
			return !ok || !f.Outside(x)
		})
		log.add(column, "outliers", "removed %d rows outside [%.4g, %.4g]", ds.Rows()-out.Rows(), f.Lower, f.Upper)
		return out, nil
	case OutliersCap:
		capped := col.Clone()
		n := 0
		for i, v := range capped.Values {
			x, ok := v.Float()
			if !ok || !f.Outside(x) {
				continue
			}
			capped.Values[i] = typeinfer.Num(math.Max(f.Lower, math.Min(f.Upper, x)))
			n++
		}
		if capped.Storage == typeinfer.StorageInt && !integral(capped) {
			capped.Storage = typeinfer.StorageFloat
		}
		log.add(column, "outliers", "capped %d values to [%.4g, %.4g]", n, f.Lower, f.Upper)
		return ds.With(capped)
	case OutliersKeep, "":
		log.add(column, "outliers", "kept %d outliers", len(OutlierRows(col)))
		return ds, nil
	}
	return nil, fmt.Errorf("unknown outlier action %q", action)
}

func integral(c *typeinfer.Column) bool {
	for _, v := range c.Values {
		if x, ok := v.Float(); ok && x != math.Trunc(x) {
			return false
		}
	}
	return true
}

// HandleAllOutliers applies action to every numeric column that has
// outliers, in column order.
func HandleAllOutliers(ds *typeinfer.Dataset, action OutlierAction, log *Log) (*typeinfer.Dataset, error) {
	out := ds
	for _, name := range typeinfer.ColumnsOfType(ds, typeinfer.Numeric) {
		col, _ := out.Column(name)
		if len(OutlierRows(col)) == 0 {
			continue
		}
		var err error
		if out, err = HandleOutliers(out, name, action, log); err != nil {
			return nil, err
		}
	}
	return out, nil
}
