package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	if r.Rows > 0 {
		if r.Processed > 0 && r.Processed < r.Rows {
			fmt.Fprintf(&b, "Rows: ~%d (processed %d)\n", r.Rows, r.Processed)
		} else {
			fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
		}
	}
	fmt.Fprintf(&b, "Columns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		fmt.Fprintf(&b, "- %s: %s, %s (non-null %d, missing %.1f%%, unique %d)", name, c.Kind, c.Storage, c.NonNull, missPct, c.Unique)
		switch c.Kind {
		case typeinfer.Numeric:
			if c.NonNull == 0 {
				break
			}
			fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g, skew %.2f, kurtosis %.2f",
				c.Min, c.Max, c.Mean, c.Median, c.Std, c.Skewness, c.Kurtosis)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case typeinfer.Datetime:
			if !c.First.IsZero() {
				fmt.Fprintf(&b, "; range %s to %s", typeinfer.Timestamp(c.First), typeinfer.Timestamp(c.Last))
			}
		case typeinfer.Categorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
			}
		case typeinfer.Text:
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(truncate(ex, 80)))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Quality) > 0 {
		b.WriteString("\n[DATA QUALITY]\n")
		for _, q := range r.Quality {
			fmt.Fprintf(&b, "- %s: %s\n", q.Severity, q.Message)
		}
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", g.Key, g.Size)
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max)
			}
		}
	}
	hasGCorr := false
	for _, g := range r.Groups {
		if len(g.CorrPairs) > 0 {
			hasGCorr = true
			break
		}
	}
	if hasGCorr {
		b.WriteString("\n[PER-GROUP CORRELATIONS]\n")
		for _, g := range r.Groups {
			if len(g.CorrPairs) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s:\n", g.Key)
			for i, p := range g.CorrPairs {
				if i == 8 {
					break
				}
				fmt.Fprintf(&b, "  • %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		seps := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
			seps[i] = "---"
		}
		fmt.Fprintf(&b, "| %s |\n| %s |\n", strings.Join(names, " | "), strings.Join(seps, " | "))
		for _, row := range r.Samples {
			cells := make([]string, len(r.Cols))
			for i := range r.Cols {
				if i < len(row) {
					cells[i] = safeVal(truncate(row[i], 80))
				}
			}
			fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the full matrix as a Markdown table.
func (m *CorrMatrix) Markdown() string {
	if m == nil || len(m.Columns) == 0 {
		return "No correlation matrix available.\n"
	}
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range m.Columns {
		fmt.Fprintf(&b, " %s |", safeVal(c))
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(m.Columns)))
	b.WriteString("\n")
	for i, c := range m.Columns {
		fmt.Fprintf(&b, "| %s |", safeVal(c))
		for j := range m.Columns {
			fmt.Fprintf(&b, " %.3f |", m.Values[i][j])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
