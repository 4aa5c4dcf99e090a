package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/export"
	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
)

var (
	abData      datasetFlags
	abProfile   profileFlags
	abOutDir    string
	abFormat    string
	abSheetTag  bool
	abQuiet     bool
	abKeepGoing bool
	abNoHistory bool
)

// expandInputs resolves globs and literal paths, dropping duplicates and
// files no loader supports.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok || !loader.Supported(m) {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// summaryPath picks dir/<base>[__sheet-x].summary<ext>, adding __2, __3, ...
// when the name is taken.
func summaryPath(dir, input, sheet, ext string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		stem += "__sheet-" + slug(sheet)
	}
	out := filepath.Join(dir, stem+".summary"+ext)
	for idx := 2; ; idx++ {
		if _, err := os.Stat(out); os.IsNotExist(err) {
			return out
		}
		out = filepath.Join(dir, fmt.Sprintf("%s__%d.summary%s", stem, idx, ext))
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if out := strings.Trim(b.String(), "-"); out != "" {
		return out
	}
	return "sheet"
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Profile many files (globs allowed) and write one summary per file",
	Example: `  datalens analyze-batch 'data/*.csv' --out-dir summaries
  datalens analyze-batch a.parquet b.xlsx --format txt --keep-going`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		ext := "." + strings.TrimPrefix(strings.ToLower(abFormat), ".")
		if ext != ".md" && ext != ".txt" {
			return fmt.Errorf("unsupported --format: %s (use md|txt)", abFormat)
		}
		po, err := abData.options()
		if err != nil {
			return err
		}
		abProfile.apply(&po.Profile)

		out := cmd.OutOrStdout()
		var progress *cli.Progress
		if !abQuiet {
			progress = cli.NewProgress(cmd.ErrOrStderr(), len(files), "analyzing")
		}
		var (
			failed  []error
			written []string
		)
		for _, path := range files {
			if progress != nil {
				progress.Step(filepath.Base(path))
			}
			res, err := runPipeline(path, po)
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
				if !abKeepGoing {
					return err
				}
				logging.Error(err, "batch item failed", logging.Fields{"file": path})
				failed = append(failed, err)
				continue
			}
			bundle := &export.Bundle{Report: res.Report, Cleaning: res.Cleaning, Created: time.Now()}
			sheet := ""
			if abSheetTag && strings.EqualFold(filepath.Ext(path), ".xlsx") {
				sheet = abData.sheetName
				if sheet == "" {
					sheet = fmt.Sprintf("%d", abData.sheetIndex)
				}
			}
			if abOutDir == "" {
				fmt.Fprintln(out, bundle.Markdown())
			} else {
				dest := summaryPath(abOutDir, path, sheet, ext)
				if err := export.Write(dest, bundle); err != nil {
					return err
				}
				written = append(written, fmt.Sprintf("%s -> %s", filepath.Base(path), dest))
			}
			if !abNoHistory {
				recordRun(path, res, bundle.Markdown(), nil)
			}
		}
		if progress != nil {
			progress.Done()
		}
		if !abQuiet {
			for _, w := range written {
				fmt.Fprintln(out, cli.Success(w))
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d files failed: %w", len(failed), len(files), errors.Join(failed...))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	fs := analyzeBatchCmd.Flags()
	abData.register(fs)
	abProfile.register(fs)
	fs.StringVar(&abOutDir, "out-dir", "", "directory for per-file summaries (default: print to stdout)")
	fs.StringVar(&abFormat, "format", "md", "summary format: md|txt")
	fs.BoolVar(&abSheetTag, "sheet-tag", true, "XLSX: include the sheet in summary file names")
	fs.BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	fs.BoolVar(&abKeepGoing, "keep-going", false, "continue with the remaining files when one fails")
	fs.BoolVar(&abNoHistory, "no-history", false, "do not record runs in the history database")
}
