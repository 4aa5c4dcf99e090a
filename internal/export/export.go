// Package export writes analysis results and datasets to disk.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/cleaning"
	"github.com/KaramelBytes/datalens-cli/internal/insights"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .md, .txt, .csv and .parquet.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNoDataset is returned when a dataset format is requested without data.
	ErrNoDataset = errors.New("bundle has no dataset to export")
)

// Bundle gathers what one analysis produced. Every section is optional;
// report formats render only what is present.
type Bundle struct {
	Title    string
	Report   *analysis.Report
	Cleaning *cleaning.Log
	Insight  *insights.Insight
	Dataset  *typeinfer.Dataset
	Created  time.Time
}

// Formats lists the supported file extensions.
func Formats() []string { return []string{".md", ".txt", ".csv", ".parquet"} }

// Write renders b according to the extension of path and writes it atomically.
func Write(path string, b *Bundle) error {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		data []byte
		err  error
	)
	switch ext {
	case ".md":
		data = []byte(b.Markdown())
	case ".txt":
		data = []byte(b.Text())
	case ".csv":
		data, err = CSV(b.Dataset)
	case ".parquet":
		data, err = Parquet(b.Dataset)
	default:
		return fmt.Errorf("%w: %q (use %s)", ErrUnsupportedFormat, ext, strings.Join(Formats(), ", "))
	}
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	logging.Info("export written", logging.Fields{"path": path, "format": ext, "bytes": len(data)})
	return nil
}

func (b *Bundle) title() string {
	if b.Title != "" {
		return b.Title
	}
	if b.Report != nil && b.Report.Name != "" {
		return "Data Analysis Report: " + b.Report.Name
	}
	return "Data Analysis Report"
}

// Markdown renders the report, cleaning log and insight sections.
func (b *Bundle) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.title())
	if !b.Created.IsZero() {
		fmt.Fprintf(&sb, "_Generated %s_\n\n", b.Created.UTC().Format(time.RFC3339))
	}
	if b.Report != nil {
		sb.WriteString(b.Report.Markdown())
		sb.WriteString("\n")
	}
	if b.Cleaning != nil && len(b.Cleaning.Entries) > 0 {
		sb.WriteString("[CLEANING LOG]\n")
		for _, l := range b.Cleaning.Lines() {
			fmt.Fprintf(&sb, "- %s\n", l)
		}
		sb.WriteString("\n")
	}
	if b.Insight != nil {
		sb.WriteString(b.Insight.Markdown())
	}
	return sb.String()
}

// Text renders a plain-text report: overview, column information and the
// remaining sections without Markdown markup.
func (b *Bundle) Text() string {
	var sb strings.Builder
	t := b.title()
	sb.WriteString(t + "\n" + strings.Repeat("=", len(t)) + "\n\n")
	if r := b.Report; r != nil {
		sb.WriteString("Dataset Summary:\n")
		fmt.Fprintf(&sb, "Number of rows: %d\n", r.Rows)
		fmt.Fprintf(&sb, "Number of columns: %d\n\n", len(r.Cols))
		sb.WriteString("Column Information:\n")
		w := 0
		for _, c := range r.Cols {
			if len(c.Name) > w {
				w = len(c.Name)
			}
		}
		for _, c := range r.Cols {
			fmt.Fprintf(&sb, "%-*s  %-11s %-8s missing=%d unique=%d\n", w, c.Name, c.Kind, c.Storage, c.Missing, c.Unique)
		}
		sb.WriteString("\n")
		if len(r.Quality) > 0 {
			sb.WriteString("Data Quality:\n")
			for _, q := range r.Quality {
				fmt.Fprintf(&sb, "- %s: %s\n", q.Severity, q.Message)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("Correlation Matrix:\n")
		sb.WriteString(stripPipes(r.Corr.Markdown()))
		sb.WriteString("\n")
	}
	if b.Cleaning != nil && len(b.Cleaning.Entries) > 0 {
		sb.WriteString("Cleaning Log:\n")
		for _, l := range b.Cleaning.Lines() {
			fmt.Fprintf(&sb, "- %s\n", l)
		}
		sb.WriteString("\n")
	}
	if in := b.Insight; in != nil {
		fmt.Fprintf(&sb, "AI Insights (%s):\n%s\n", in.Model, strings.TrimSpace(in.Text))
	}
	return sb.String()
}

func stripPipes(md string) string {
	var out []string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.Trim(trimmed, "|-: ") == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "|") {
			cells := strings.Split(strings.Trim(trimmed, "|"), "|")
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			line = strings.Join(cells, "\t")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// CSV encodes ds with a header row. Missing values become empty cells.
func CSV(ds *typeinfer.Dataset) ([]byte, error) {
	if ds == nil || ds.NumColumns() == 0 {
		return nil, ErrNoDataset
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Names()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	cols := ds.Columns()
	rec := make([]string, len(cols))
	for i := 0; i < ds.Rows(); i++ {
		for j, c := range cols {
			rec[j] = c.Values[i].String()
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
