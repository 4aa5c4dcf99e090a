package typeinfer

import (
	"errors"
	"math"
	"sort"
	"time"
)

// CategoricalRatio is the cardinality ratio below which an open/generic
// column is considered categorical.
const CategoricalRatio = 0.5

// InferType classifies a column. Rules apply in order and the first match
// wins: numeric storage, datetime storage, explicit categorical storage,
// open/generic storage with a cardinality ratio under CategoricalRatio.
// Everything else, including an empty column, is Text.
func InferType(col *Column) InferredType {
	if col == nil {
		return Text
	}
	switch {
	case col.Storage.IsNumeric():
		return Numeric
	case col.Storage == StorageDatetime:
		return Datetime
	case col.Storage == StorageCategorical:
		return Categorical
	case col.Storage == StorageObject:
		if r, ok := col.CardinalityRatio(); ok && r < CategoricalRatio {
			return Categorical
		}
	}
	return Text
}

// Preprocess infers the column type and coerces the column to it using the
// default parse options.
func Preprocess(col *Column) (*Column, error) {
	return PreprocessWith(col, DefaultParseOptions())
}

// PreprocessWith is Preprocess with explicit number parsing options.
func PreprocessWith(col *Column, opt ParseOptions) (*Column, error) {
	if col == nil {
		return nil, &ConversionError{Required: Text, Actual: Text, Err: ErrNilColumn}
	}
	return Coerce(col, InferType(col), opt)
}

// Coerce converts col toward target. Individually malformed values become
// missing; the call only fails when there is no column or the target is not
// one of the four kinds. The input column is never modified.
func Coerce(col *Column, target InferredType, opt ParseOptions) (*Column, error) {
	if col == nil {
		return nil, &ConversionError{Required: target, Actual: Text, Err: ErrNilColumn}
	}
	switch target {
	case Numeric:
		return toNumeric(col, opt), nil
	case Datetime:
		return toDatetime(col, opt), nil
	case Categorical:
		if col.Storage == StorageCategorical {
			return col, nil
		}
		out := col.Clone()
		out.Storage = StorageCategorical
		return out, nil
	case Text:
		out := col.Clone()
		out.Storage = StorageString
		return out, nil
	}
	return nil, &ConversionError{Column: col.Name, Required: target, Actual: InferType(col), Err: ErrUnknownType}
}

func toNumeric(col *Column, opt ParseOptions) *Column {
	out := &Column{Name: col.Name, Values: make([]Value, len(col.Values))}
	if col.Storage.IsNumeric() {
		copy(out.Values, col.Values)
		out.Storage = col.Storage
		return out
	}
	integral := true
	for i, v := range col.Values {
		var (
			f  float64
			ok bool
		)
		switch {
		case v.IsMissing():
		case v.kind == kindNumber:
			f, ok = v.num, true
		case v.kind == kindTime:
			f, ok = float64(v.t.Unix()), true
		case v.kind == kindString:
			f, ok = ParseNumber(v.s, opt)
		}
		if !ok || math.IsNaN(f) {
			integral = false
			continue
		}
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			integral = false
		}
		out.Values[i] = Num(f)
	}
	out.Storage = StorageFloat
	if integral {
		out.Storage = StorageInt
	}
	return out
}

func toDatetime(col *Column, _ ParseOptions) *Column {
	out := &Column{Name: col.Name, Storage: StorageDatetime, Values: make([]Value, len(col.Values))}
	for i, v := range col.Values {
		switch v.kind {
		case kindTime:
			out.Values[i] = v
		case kindNumber:
			if !math.IsInf(v.num, 0) {
				sec, frac := math.Modf(v.num)
				out.Values[i] = Timestamp(time.Unix(int64(sec), int64(frac*1e9)))
			}
		case kindString:
			if t, ok := ParseTime(v.s); ok {
				out.Values[i] = Timestamp(t)
			}
		}
	}
	return out
}

// CheckAndPreprocess gates a dataset before an operation that needs columns
// of specific kinds. Each required column whose inferred type differs is
// coerced toward the required type. The caller's dataset is never modified:
// the result is a copy in which only coerced columns are replaced.
//
// Failures are collected per column. A missing column yields a
// *MissingColumnError and a column that still mismatches after coercion a
// *ConversionError; neither stops the remaining entries. The returned
// dataset is always non-nil and holds every successful coercion, next to
// the joined errors.
func CheckAndPreprocess(ds *Dataset, required map[string]InferredType) (*Dataset, error) {
	return CheckAndPreprocessWith(ds, required, DefaultParseOptions())
}

// CheckAndPreprocessWith is CheckAndPreprocess with explicit parse options.
func CheckAndPreprocessWith(ds *Dataset, required map[string]InferredType, opt ParseOptions) (*Dataset, error) {
	out := ds.shallowCopy()
	names := make([]string, 0, len(required))
	for n := range required {
		names = append(names, n)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		want := required[name]
		i, ok := out.index[name]
		if !ok {
			errs = append(errs, &MissingColumnError{Column: name})
			continue
		}
		col := out.cols[i]
		if InferType(col) == want {
			continue
		}
		coerced, err := Coerce(col, want, opt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if got := InferType(coerced); got != want {
			errs = append(errs, &ConversionError{Column: name, Required: want, Actual: got})
			continue
		}
		out.cols[i] = coerced
	}
	return out, errors.Join(errs...)
}

// ColumnsOfType lists the columns of ds whose inferred type is t, in order.
func ColumnsOfType(ds *Dataset, t InferredType) []string {
	var out []string
	for _, c := range ds.cols {
		if InferType(c) == t {
			out = append(out, c.Name)
		}
	}
	return out
}

// PreprocessAll runs Preprocess on every column and returns the new dataset.
// Columns that fail keep their original representation; their errors are
// joined in the returned error.
func PreprocessAll(ds *Dataset, opt ParseOptions) (*Dataset, error) {
	out := ds.shallowCopy()
	var errs []error
	for i, c := range out.cols {
		pc, err := PreprocessWith(c, opt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.cols[i] = pc
	}
	return out, errors.Join(errs...)
}
