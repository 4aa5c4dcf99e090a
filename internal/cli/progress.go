package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/KaramelBytes/datalens-cli/internal/logging"
)

// Progress wraps a progress bar over a known number of steps.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress draws to w. A nil w renders nothing.
func NewProgress(w io.Writer, total int, description string) *Progress {
	if w == nil {
		w = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)
	return &Progress{bar: bar}
}

// Step advances by one and updates the trailing description.
func (p *Progress) Step(label string) {
	if label != "" {
		p.bar.Describe("[cyan]" + label + "[reset]")
	}
	if err := p.bar.Add(1); err != nil {
		logging.Warn("progress update failed", logging.Fields{"error": err.Error()})
	}
}

// Done completes the bar.
func (p *Progress) Done() {
	if err := p.bar.Finish(); err != nil {
		logging.Warn("progress finish failed", logging.Fields{"error": err.Error()})
	}
}
