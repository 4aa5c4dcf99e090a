// Package analysis profiles typed datasets and renders the result as
// prompt-friendly Markdown.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report; 0 omits them.
	SampleRows int
	// TopValues caps the category counts listed per categorical column.
	TopValues int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		TopValues:        8,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Quality   []QualityIssue
	Warnings  []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Unit    string
	Storage typeinfer.Storage
	Kind    typeinfer.InferredType
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Std float64
	Median              float64
	Skewness, Kurtosis  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Datetime range
	First, Last time.Time
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr            // top correlation pairs (by |r|)
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// ProfileResult profiles a freshly loaded file, carrying over its name, the
// row count before MaxRows, and any loader warnings.
func ProfileResult(res *loader.Result, opt Options) *Report {
	rep := Profile(res.Dataset, opt)
	rep.Name = res.Name
	if res.TotalRows > rep.Rows {
		rep.Rows = res.TotalRows
	}
	rep.Warnings = append(append([]string(nil), res.Warnings...), rep.Warnings...)
	return rep
}

// Profile summarizes every column of ds. The dataset is read, never changed.
func Profile(ds *typeinfer.Dataset, opt Options) *Report {
	rep := &Report{Rows: ds.Rows(), Processed: ds.Rows()}
	for _, c := range ds.Columns() {
		rep.Cols = append(rep.Cols, summarize(c, opt))
	}
	rep.Samples = sampleRows(ds, opt.SampleRows)
	rep.Quality = QualityChecks(rep.Cols)

	if opt.Correlations {
		corr, err := Correlations(ds)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("could not compute correlations: %v", err))
		}
		rep.Corr = corr
	}
	if len(opt.GroupBy) > 0 {
		groups, err := groupBy(ds, opt)
		if err != nil {
			rep.Warnings = append(rep.Warnings, err.Error())
		}
		rep.Groups = groups
	}
	return rep
}

func summarize(c *typeinfer.Column, opt Options) ColumnSummary {
	clean, unit := splitUnits(c.Name)
	s := ColumnSummary{
		Name:    clean,
		Unit:    unit,
		Storage: c.Storage,
		Kind:    typeinfer.InferType(c),
		Missing: c.MissingCount(),
		Unique:  c.DistinctCount(),
	}
	s.NonNull = c.Len() - s.Missing
	switch s.Kind {
	case typeinfer.Numeric:
		vals := NumericValues(c)
		if len(vals) == 0 {
			break
		}
		m := describe(vals)
		s.Min, s.Max, s.Mean, s.Std = m.min, m.max, m.mean, m.std
		s.Skewness, s.Kurtosis = m.skew, m.kurt
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		s.Median = Quantile(sorted, 0.5)
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, thr)
			s.OutlierThreshold = thr
		}
	case typeinfer.Datetime:
		for _, v := range c.Values {
			t, ok := v.Time()
			if !ok {
				continue
			}
			if s.First.IsZero() || t.Before(s.First) {
				s.First = t
			}
			if s.Last.IsZero() || t.After(s.Last) {
				s.Last = t
			}
		}
	case typeinfer.Categorical:
		s.TopValues = topValues(c, opt.TopValues)
	default:
		for _, v := range c.Values {
			if len(s.ExampleTexts) == 3 {
				break
			}
			if !v.IsMissing() {
				s.ExampleTexts = append(s.ExampleTexts, v.String())
			}
		}
	}
	return s
}

// NumericValues returns the present numbers of c in row order.
func NumericValues(c *typeinfer.Column) []float64 {
	out := make([]float64, 0, c.Len())
	for _, v := range c.Values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func topValues(c *typeinfer.Column, limit int) []CategoryCount {
	counts := map[string]int{}
	for _, v := range c.Values {
		if !v.IsMissing() {
			counts[v.String()]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if limit <= 0 {
		limit = 8
	}
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func sampleRows(ds *typeinfer.Dataset, n int) [][]string {
	if n <= 0 {
		return nil
	}
	if n > ds.Rows() {
		n = ds.Rows()
	}
	cols := ds.Columns()
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Values[i].String()
		}
		out[i] = row
	}
	return out
}

func groupBy(ds *typeinfer.Dataset, opt Options) ([]GroupResult, error) {
	byLower := map[string]*typeinfer.Column{}
	for _, c := range ds.Columns() {
		byLower[strings.ToLower(c.Name)] = c
	}
	var keys []*typeinfer.Column
	var unknown []string
	for _, name := range opt.GroupBy {
		c, ok := byLower[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		keys = append(keys, c)
	}
	var err error
	if len(unknown) > 0 {
		err = fmt.Errorf("group-by columns not found: %s", strings.Join(unknown, ", "))
	}
	if len(keys) == 0 {
		return nil, err
	}

	members := map[string][]int{}
	for i := 0; i < ds.Rows(); i++ {
		parts := make([]string, len(keys))
		for k, c := range keys {
			parts[k] = fmt.Sprintf("%s=%s", c.Name, safeVal(c.Values[i].String()))
		}
		key := strings.Join(parts, " | ")
		members[key] = append(members[key], i)
	}

	numeric := typeinfer.ColumnsOfType(ds, typeinfer.Numeric)
	out := make([]GroupResult, 0, len(members))
	for key, rows := range members {
		gr := GroupResult{Key: key, Size: len(rows), Metrics: map[string]NumSummary{}}
		for _, name := range numeric {
			c, _ := ds.Column(name)
			ns := NumSummary{Min: math.Inf(1), Max: math.Inf(-1)}
			var sum float64
			for _, i := range rows {
				x, ok := c.Values[i].Float()
				if !ok {
					continue
				}
				ns.Count++
				sum += x
				ns.Min = math.Min(ns.Min, x)
				ns.Max = math.Max(ns.Max, x)
			}
			if ns.Count == 0 {
				continue
			}
			ns.Mean = sum / float64(ns.Count)
			gr.Metrics[name] = ns
		}
		if opt.CorrPerGroup {
			sub := ds.FilterRows(func(i int) bool { return contains(rows, i) })
			if m, cerr := Correlations(sub); cerr == nil && m != nil {
				gr.CorrPairs = m.TopPairs(10)
			}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, err
}

// contains reports whether sorted holds i.
func contains(sorted []int, i int) bool {
	k := sort.SearchInts(sorted, i)
	return k < len(sorted) && sorted[k] == i
}
