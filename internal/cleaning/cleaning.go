// Package cleaning applies missing-data strategies and IQR outlier handling
// to typed datasets. Every function returns a new dataset; inputs are never
// modified.
package cleaning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// MissingStrategy names how missing cells are handled.
type MissingStrategy string

const (
	MissingKeep   MissingStrategy = "keep"
	MissingDrop   MissingStrategy = "drop"
	MissingMean   MissingStrategy = "mean"
	MissingMedian MissingStrategy = "median"
)

// OutlierAction names how values outside the IQR fences are handled.
type OutlierAction string

const (
	OutliersKeep   OutlierAction = "keep"
	OutliersRemove OutlierAction = "remove"
	OutliersCap    OutlierAction = "cap"
)

// ParseMissingStrategy validates a flag or config value.
func ParseMissingStrategy(s string) (MissingStrategy, error) {
	switch m := MissingStrategy(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MissingKeep, nil
	case MissingKeep, MissingDrop, MissingMean, MissingMedian:
		return m, nil
	}
	return "", fmt.Errorf("unknown missing-data strategy %q (use keep, drop, mean or median)", s)
}

// ParseOutlierAction validates a flag or config value.
func ParseOutlierAction(s string) (OutlierAction, error) {
	switch a := OutlierAction(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return OutliersKeep, nil
	case OutliersKeep, OutliersRemove, OutliersCap:
		return a, nil
	}
	return "", fmt.Errorf("unknown outlier action %q (use keep, remove or cap)", s)
}

// Entry records one cleaning action.
type Entry struct {
	Column string
	Action string
	Detail string
}

// Log accumulates what a cleaning pass did, in order.
type Log struct {
	Entries []Entry
}

func (l *Log) add(col, action, format string, args ...any) {
	l.Entries = append(l.Entries, Entry{Column: col, Action: action, Detail: fmt.Sprintf(format, args...)})
}

// Lines renders the log one entry per line.
func (l *Log) Lines() []string {
	out := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		if e.Column == "" {
			out[i] = fmt.Sprintf("%s: %s", e.Action, e.Detail)
			continue
		}
		out[i] = fmt.Sprintf("%s '%s': %s", e.Action, e.Column, e.Detail)
	}
	return out
}

// HandleMissing applies strategy column by column. Numeric columns are
// imputed with their mean or median; categorical and text columns with
// their most frequent value. Datetime columns are left alone. The drop
// strategy removes every row that is missing in a numeric, categorical or
// text column.
func HandleMissing(ds *typeinfer.Dataset, strategy MissingStrategy, log *Log) (*typeinfer.Dataset, error) {
	if log == nil {
		log = &Log{}
	}
	switch strategy {
	case MissingKeep, "":
		log.add("", "missing", "kept missing data")
		return ds, nil
	case MissingDrop:
		var watched []*typeinfer.Column
		for _, c := range ds.Columns() {
			if typeinfer.InferType(c) != typeinfer.Datetime {
				watched = append(watched, c)
			}
		}
		out := ds.FilterRows(func(i int) bool {
			for _, c := range watched {
				if c.Values[i].IsMissing() {
					return false
				}
			}
			return true
		})
		log.add("", "missing", "dropped %d rows with missing data", ds.Rows()-out.Rows())
		return out, nil
	case MissingMean, MissingMedian:
	default:
		return nil, fmt.Errorf("unknown missing-data strategy %q", strategy)
	}

	out := ds
	for _, c := range ds.Columns() {
		if c.MissingCount() == 0 {
			continue
		}
		var (
			filled *typeinfer.Column
			fill   string
		)
		switch typeinfer.InferType(c) {
		case typeinfer.Numeric:
			vals := analysis.NumericValues(c)
			if len(vals) == 0 {
				continue
			}
			v := mean(vals)
			if strategy == MissingMedian {
				sort.Float64s(vals)
				v = analysis.Quantile(vals, 0.5)
			}
			filled = fillNumeric(c, v)
			fill = typeinfer.Num(v).String()
		case typeinfer.Categorical, typeinfer.Text:
			m, ok := mode(c)
			if !ok {
				continue
			}
			filled = fillWith(c, m)
			fill = m.String()
		default:
			continue
		}
		var err error
		if out, err = out.With(filled); err != nil {
			return nil, err
		}
		log.add(c.Name, "impute", "filled %d missing values with %s (%s)", c.MissingCount(), fill, strategy)
	}
	return out, nil
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// mode returns the most frequent present value; ties go to the smallest.
func mode(c *typeinfer.Column) (typeinfer.Value, bool) {
	counts := map[string]int{}
	first := map[string]typeinfer.Value{}
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		k := v.String()
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		counts[k]++
	}
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || n == bestN && k < best {
			best, bestN = k, n
		}
	}
	if bestN == 0 {
		return typeinfer.Missing(), false
	}
	return first[best], true
}

func fillWith(c *typeinfer.Column, v typeinfer.Value) *typeinfer.Column {
	out := c.Clone()
	for i := range out.Values {
		if out.Values[i].IsMissing() {
			out.Values[i] = v
		}
	}
	return out
}

// fillNumeric keeps integer storage only while every value stays integral.
func fillNumeric(c *typeinfer.Column, v float64) *typeinfer.Column {
	out := fillWith(c, typeinfer.Num(v))
	if out.Storage == typeinfer.StorageInt && v != math.Trunc(v) {
		out.Storage = typeinfer.StorageFloat
	}
	return out
}
