package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/cleaning"
	"github.com/KaramelBytes/datalens-cli/internal/loader"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/typeinfer"
)

// datasetFlags are the loading and cleaning flags shared by analyze,
// analyze-batch, preprocess and insights.
type datasetFlags struct {
	delimiter     string
	decimal       string
	thousands     string
	maxRows       int
	sheetName     string
	sheetIndex    int
	raw           bool
	require       []string
	missing       string
	outlierAction string
	outlierCols   []string
}

func (f *datasetFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.IntVar(&f.maxRows, "max-rows", -1, "maximum rows to process (0 = unlimited, default from config)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.BoolVar(&f.raw, "raw", false, "skip per-column type preprocessing after loading")
	fs.StringArrayVar(&f.require, "require", nil, "required column type as name=numeric|datetime|categorical|text (repeatable)")
	fs.StringVar(&f.missing, "missing", "keep", "missing data strategy: keep|drop|mean|median")
	fs.StringVar(&f.outlierAction, "outlier-action", "keep", "IQR outlier handling: keep|remove|cap")
	fs.StringSliceVar(&f.outlierCols, "outlier-columns", nil, "columns for outlier handling (default: every numeric column)")
}

type pipelineOptions struct {
	Load        loader.Options
	Profile     analysis.Options
	Required    map[string]typeinfer.InferredType
	Missing     cleaning.MissingStrategy
	Outliers    cleaning.OutlierAction
	OutlierCols []string
}

func (f *datasetFlags) options() (pipelineOptions, error) {
	po := pipelineOptions{Load: loader.DefaultOptions(), Profile: analysis.DefaultOptions()}
	if cfg != nil {
		if cfg.MaxRows > 0 {
			po.Load.MaxRows = cfg.MaxRows
		}
		if cfg.SampleRows > 0 {
			po.Profile.SampleRows = cfg.SampleRows
		}
	}
	if f.maxRows >= 0 {
		po.Load.MaxRows = f.maxRows
	}
	po.Load.SheetName = f.sheetName
	po.Load.SheetIndex = f.sheetIndex
	po.Load.Raw = f.raw

	switch f.delimiter {
	case "":
	case ",":
		po.Load.Delimiter = ','
	case "\t", "tab":
		po.Load.Delimiter = '\t'
	case ";":
		po.Load.Delimiter = ';'
	case "|", "pipe":
		po.Load.Delimiter = '|'
	default:
		return po, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		po.Load.Parse.DecimalSeparator = ','
	case ".", "dot":
		po.Load.Parse.DecimalSeparator = '.'
	case "":
	default:
		return po, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		po.Load.Parse.ThousandsSeparator = ','
	case ".":
		po.Load.Parse.ThousandsSeparator = '.'
	case "space", " ":
		po.Load.Parse.ThousandsSeparator = ' '
	case "":
	default:
		return po, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}

	req, err := parseRequired(f.require)
	if err != nil {
		return po, err
	}
	po.Required = req
	if po.Missing, err = cleaning.ParseMissingStrategy(f.missing); err != nil {
		return po, err
	}
	if po.Outliers, err = cleaning.ParseOutlierAction(f.outlierAction); err != nil {
		return po, err
	}
	po.OutlierCols = f.outlierCols
	return po, nil
}

// parseRequired reads name=type pairs. The last occurrence of a name wins.
func parseRequired(pairs []string) (map[string]typeinfer.InferredType, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]typeinfer.InferredType, len(pairs))
	for _, p := range pairs {
		name, kind, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --require %q (want column=type)", p)
		}
		t, err := typeinfer.ParseInferredType(kind)
		if err != nil {
			return nil, fmt.Errorf("--require %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

type pipelineResult struct {
	Loaded   *loader.Result
	Dataset  *typeinfer.Dataset
	Report   *analysis.Report
	Cleaning *cleaning.Log
	// GateErrors are the required-type failures; the steps that depended
	// on those columns were skipped.
	GateErrors []error
}

// runPipeline loads path, applies required types, cleans and profiles.
func runPipeline(path string, po pipelineOptions) (*pipelineResult, error) {
	res, err := loader.Load(path, po.Load)
	if err != nil {
		return nil, err
	}
	out := &pipelineResult{Loaded: res, Dataset: res.Dataset}
	var warnings []string

	if len(po.Required) > 0 {
		ds, gerr := typeinfer.CheckAndPreprocess(out.Dataset, po.Required)
		out.Dataset = ds
		if gerr != nil {
			out.GateErrors = unwrapAll(gerr)
			for _, e := range out.GateErrors {
				warnings = append(warnings, "type check: "+e.Error())
				logging.Warn("required column type not satisfied", logging.Fields{"file": res.Name, "error": e.Error()})
			}
		}
	}

	log := &cleaning.Log{}
	if po.Missing != cleaning.MissingKeep {
		ds, err := cleaning.HandleMissing(out.Dataset, po.Missing, log)
		if err != nil {
			return nil, fmt.Errorf("handle missing data: %w", err)
		}
		out.Dataset = ds
	}
	if po.Outliers != cleaning.OutliersKeep {
		if len(po.OutlierCols) == 0 {
			ds, err := cleaning.HandleAllOutliers(out.Dataset, po.Outliers, log)
			if err != nil {
				return nil, fmt.Errorf("handle outliers: %w", err)
			}
			out.Dataset = ds
		} else {
			cols := append([]string(nil), po.OutlierCols...)
			sort.Strings(cols)
			for _, c := range cols {
				ds, err := cleaning.HandleOutliers(out.Dataset, c, po.Outliers, log)
				if err != nil {
					var mce *typeinfer.MissingColumnError
					if errors.As(err, &mce) {
						warnings = append(warnings, err.Error())
						continue
					}
					return nil, fmt.Errorf("handle outliers: %w", err)
				}
				out.Dataset = ds
			}
		}
	}
	if len(log.Entries) > 0 {
		out.Cleaning = log
	}

	profiled := *res
	profiled.Dataset = out.Dataset
	profiled.Warnings = append(append([]string(nil), res.Warnings...), warnings...)
	out.Report = analysis.ProfileResult(&profiled, po.Profile)
	return out, nil
}

func unwrapAll(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
