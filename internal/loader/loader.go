// Package loader reads tabular files into typeinfer datasets.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

var (
	// ErrUnsupported indicates no loader handles the file extension.
	ErrUnsupported = errors.New("unsupported dataset format")
	// ErrEmpty indicates a file with no columns or no data rows.
	ErrEmpty = errors.New("the file is empty")
)

// Options controls loading.
type Options struct {
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the extension (tab for .tsv, else comma).
	Delimiter rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// Parse controls number parsing during storage sniffing and preprocessing.
	Parse typeinfer.ParseOptions
	// Raw skips the per-column preprocessing pass after reading.
	Raw bool
}

// DefaultOptions mirrors what the analyze command uses when no flags are given.
func DefaultOptions() Options {
	return Options{
		MaxRows:    100000,
		SheetIndex: 1,
		Parse:      typeinfer.DefaultParseOptions(),
	}
}

// Result is a loaded dataset plus what the reader noticed along the way.
type Result struct {
	Name      string
	Dataset   *typeinfer.Dataset
	TotalRows int
	Warnings  []string
}

// Reader decodes one file format into a header and raw rows, or directly
// into typed columns.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*Table, error)
}

// Table is what a Reader hands back. Either Header/Rows (text cells) or
// Columns (already typed, e.g. from Parquet) is set.
type Table struct {
	Header    []string
	Rows      [][]string
	Columns   []*typeinfer.Column
	TotalRows int
	Warnings  []string
}

var registry []Reader

// Register adds a reader to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// Supported reports whether some registered reader handles path.
func Supported(path string) bool {
	for _, r := range registry {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

// Load reads path with the matching reader, sniffs storage types the way a
// dataframe reader does, and then preprocesses every column. A column that
// fails preprocessing keeps its raw representation and adds a warning.
func Load(path string, opt Options) (*Result, error) {
	var rd Reader
	for _, r := range registry {
		if r.CanRead(path) {
			rd = r
			break
		}
	}
	if rd == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	tbl, err := rd.Read(path, opt)
	if err != nil {
		return nil, err
	}
	res := &Result{Name: filepath.Base(path), TotalRows: tbl.TotalRows}
	res.Warnings = append(res.Warnings, tbl.Warnings...)

	cols := tbl.Columns
	if cols == nil {
		if len(tbl.Header) == 0 {
			return nil, ErrEmpty
		}
		cols = buildColumns(tbl.Header, tbl.Rows, opt.Parse)
	}
	if len(cols) == 0 {
		return nil, ErrEmpty
	}
	if cols[0].Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmpty)
	}
	if opt.MaxRows > 0 && tbl.TotalRows > cols[0].Len() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", cols[0].Len(), tbl.TotalRows))
	}

	ds, err := typeinfer.NewDataset(cols...)
	if err != nil {
		return nil, fmt.Errorf("assemble dataset: %w", err)
	}
	if !opt.Raw {
		pre, perr := typeinfer.PreprocessAll(ds, opt.Parse)
		if perr != nil {
			for _, e := range unwrapJoined(perr) {
				res.Warnings = append(res.Warnings, fmt.Sprintf("could not preprocess column: %v", e))
			}
		}
		ds = pre
	}
	res.Dataset = ds
	logging.Debug("dataset loaded", logging.Fields{
		"file":    res.Name,
		"rows":    ds.Rows(),
		"columns": ds.NumColumns(),
	})
	return res, nil
}

// buildColumns turns text rows into object columns, then upgrades columns
// whose every present cell is a number to numeric storage.
func buildColumns(header []string, rows [][]string, opt typeinfer.ParseOptions) []*typeinfer.Column {
	names := uniqueNames(header)
	cols := make([]*typeinfer.Column, len(names))
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				v := strings.TrimSpace(rec[j])
				if !typeinfer.IsMissingToken(v) {
					raw[i] = v
				}
			}
		}
		cols[j] = sniffStorage(typeinfer.NewObjectColumn(name, raw), opt)
	}
	return cols
}

// sniffStorage returns a numeric column when every non-missing cell parses
// as a number, otherwise the input.
func sniffStorage(col *typeinfer.Column, opt typeinfer.ParseOptions) *typeinfer.Column {
	present := 0
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		s, _ := v.Text()
		if _, ok := typeinfer.ParseNumber(s, opt); !ok {
			return col
		}
		present++
	}
	if present == 0 {
		return col
	}
	num, err := typeinfer.Coerce(col, typeinfer.Numeric, opt)
	if err != nil {
		return col
	}
	return num
}

// uniqueNames fills blank header cells and suffixes duplicates with .1, .2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	next := make(map[string]int)
	for i, h := range header {
		base := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if base == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}
		name := base
		for taken[name] {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
	Register(parquetReader{})
}
