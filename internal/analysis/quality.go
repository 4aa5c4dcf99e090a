package analysis

import (
	"fmt"

	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// Severity grades a quality finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// QualityIssue is one data quality finding about a column.
type QualityIssue struct {
	Column   string
	Severity Severity
	Message  string
}

// QualityChecks flags missing values in every column, mixed-sign numeric
// columns, datetime ranges and single-valued categorical or text columns.
func QualityChecks(cols []ColumnSummary) []QualityIssue {
	var out []QualityIssue
	add := func(c ColumnSummary, sev Severity, format string, args ...any) {
		out = append(out, QualityIssue{Column: c.Name, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}
	for _, c := range cols {
		if c.Missing > 0 {
			add(c, SeverityWarning, "Column '%s' contains %d null values.", c.Name, c.Missing)
		}
		switch c.Kind {
		case typeinfer.Numeric:
			if c.NonNull > 0 && c.Min < 0 && c.Max > 0 {
				add(c, SeverityInfo, "Column '%s' contains both positive and negative values.", c.Name)
			}
		case typeinfer.Datetime:
			if !c.First.IsZero() {
				add(c, SeverityInfo, "Date range for '%s': %s to %s", c.Name,
					typeinfer.Timestamp(c.First).String(), typeinfer.Timestamp(c.Last).String())
			}
		case typeinfer.Categorical, typeinfer.Text:
			if c.Unique == 1 {
				only := ""
				switch {
				case len(c.TopValues) > 0:
					only = c.TopValues[0].Value
				case len(c.ExampleTexts) > 0:
					only = c.ExampleTexts[0]
				}
				add(c, SeverityWarning, "Column '%s' has only one unique value: %s", c.Name, only)
			}
		}
	}
	return out
}
