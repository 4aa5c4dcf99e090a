// Package cli holds terminal presentation helpers shared by the commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#5FAFFF")
	successColor = lipgloss.Color("#4ECDC4")
	warningColor = lipgloss.Color("#FFE66D")
	errorColor   = lipgloss.Color("#FF6B6B")
	subtleColor  = lipgloss.Color("#777777")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			Padding(0, 1)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "i"
)

func Title(s string) string   { return titleStyle.Render(s) }
func Subtle(s string) string  { return subtleStyle.Render(s) }
func Success(s string) string { return successStyle.Render(SuccessIcon + " " + s) }
func Warning(s string) string { return warningStyle.Render(WarningIcon + " " + s) }
func Error(s string) string   { return errorStyle.Render(ErrorIcon + " " + s) }

// Box frames content under a bold title.
func Box(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), strings.TrimRight(content, "\n")))
}

// Table renders rows in aligned columns with a styled header. Width is
// measured with lipgloss so styled or wide cells stay aligned.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if w := lipgloss.Width(r[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	var b strings.Builder
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = headerStyle.Render(pad(h, widths[i]))
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
	b.WriteString("\n")
	for _, r := range rows {
		for i := range cells {
			v := ""
			if i < len(r) {
				v = r[i]
			}
			cells[i] = pad(v, widths[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
