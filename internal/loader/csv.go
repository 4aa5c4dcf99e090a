package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvReader) Read(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return readDelimited(f, delim, opt.MaxRows)
}

func readDelimited(src io.Reader, delim rune, maxRows int) (*Table, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	// encoding/csv counts tabs as leading space, which would swallow empty
	// TSV cells; buildColumns trims values instead.
	r.TrimLeadingSpace = delim != '\t' && delim != ' '
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	tbl := &Table{Header: append([]string(nil), header...)}
	long, firstLong := 0, 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", tbl.TotalRows+1, err)
		}
		tbl.TotalRows++
		if maxRows > 0 && len(tbl.Rows) >= maxRows {
			continue
		}
		if len(rec) > ncol {
			if long == 0 {
				firstLong = tbl.TotalRows
			}
			long++
		}
		row := make([]string, ncol)
		copy(row, rec)
		tbl.Rows = append(tbl.Rows, row)
	}
	if long > 0 {
		tbl.Warnings = append(tbl.Warnings, fmt.Sprintf("%d rows have more fields than the %d-column header (first at row %d); extra fields were ignored", long, ncol, firstLong))
	}
	return tbl, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
