package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/cli"
	"github.com/KaramelBytes/datalens-cli/internal/export"
	"github.com/KaramelBytes/datalens-cli/internal/history"
	"github.com/KaramelBytes/datalens-cli/internal/insights"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// profileFlags tune the report.
type profileFlags struct {
	sampleRows int
	groupBy    []string
	corr       bool
	corrGroups bool
	outliers   bool
	outlierThr float64
}

func (f *profileFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.sampleRows, "sample-rows", -1, "number of sample rows to include (default from config)")
	fs.StringSliceVar(&f.groupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	fs.BoolVar(&f.corr, "correlations", true, "compute Pearson correlations among numeric columns")
	fs.BoolVar(&f.corrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	fs.BoolVar(&f.outliers, "outliers", true, "compute robust outlier counts (MAD)")
	fs.Float64Var(&f.outlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}

func (f *profileFlags) apply(opt *analysis.Options) {
	if f.sampleRows >= 0 {
		opt.SampleRows = f.sampleRows
	}
	opt.GroupBy = f.groupBy
	opt.Correlations = f.corr
	opt.CorrPerGroup = f.corrGroups
	opt.Outliers = f.outliers
	if f.outlierThr > 0 {
		opt.OutlierThreshold = f.outlierThr
	}
}

// insightFlags select the model for AI insights.
type insightFlags struct {
	provider   string
	model      string
	question   string
	maxTokens  int
	temp       float64
	budget     int
	stream     bool
	ollamaHost string
	timeoutSec int
}

func (f *insightFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.provider, "provider", "", "LLM provider: groq|openrouter|ollama (default from config)")
	fs.StringVar(&f.model, "model", "", "model id (default from config)")
	fs.StringVar(&f.question, "question", "", "ask a specific question about the data instead of general insights")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "max completion tokens (default from config)")
	fs.Float64Var(&f.temp, "temperature", -1, "sampling temperature (default from config)")
	fs.IntVar(&f.budget, "token-budget", 0, "cap on prompt tokens; the report is truncated to fit (default from config)")
	fs.BoolVar(&f.stream, "stream", false, "stream the answer as it is generated")
	fs.StringVar(&f.ollamaHost, "ollama-host", "", "override Ollama host (e.g., http://127.0.0.1:11434)")
	fs.IntVar(&f.timeoutSec, "timeout", 180, "request timeout in seconds")
}

// generateInsights sends the report to the configured model. Streamed
// output goes to w as it arrives.
func generateInsights(report string, f *insightFlags, w io.Writer) (*insights.Insight, error) {
	rt, provider, err := buildRuntime(cfg, runtimeOptions{ProviderFlag: f.provider, OllamaHost: f.ollamaHost})
	if err != nil {
		return nil, err
	}
	req := insights.Request{
		Model:       resolveModel(cfg, provider, f.model),
		Context:     report,
		Question:    f.question,
		MaxTokens:   f.maxTokens,
		Temperature: f.temp,
		Budget:      f.budget,
	}
	if cfg != nil {
		if req.MaxTokens <= 0 {
			req.MaxTokens = cfg.MaxTokens
		}
		if req.Temperature < 0 {
			req.Temperature = cfg.Temperature
		}
		if req.Budget <= 0 {
			req.Budget = cfg.InsightTokenBudget
		}
	}
	if req.Temperature < 0 {
		req.Temperature = 0.3
	}
	timeout := f.timeoutSec
	if timeout <= 0 {
		timeout = 180
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	var onDelta func(string)
	if f.stream {
		onDelta = func(d string) { fmt.Fprint(w, d) }
	}
	in, err := insights.Generate(ctx, rt, req, onDelta)
	if err != nil {
		return nil, explainAIError(err, provider)
	}
	if f.stream {
		fmt.Fprintln(w)
	}
	return in, nil
}

// recordRun stores the run in the history database. Failures are logged,
// never fatal.
func recordRun(file string, res *pipelineResult, md string, in *insights.Insight) string {
	if cfg == nil || cfg.HistoryDB == "" {
		return ""
	}
	ctx := context.Background()
	store, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		logging.Warn("history unavailable", logging.Fields{"error": err.Error()})
		return ""
	}
	defer store.Close()
	run := &history.Run{
		File:     file,
		Rows:     res.Dataset.Rows(),
		Columns:  res.Dataset.NumColumns(),
		Markdown: md,
	}
	if in != nil {
		run.Model = in.Model
		run.Insight = in.Text
	}
	if err := store.Save(ctx, run); err != nil {
		logging.Warn("history save failed", logging.Fields{"error": err.Error()})
		return ""
	}
	return run.ID
}

// stdoutReport renders the bundle for the terminal. A streamed insight has
// already been printed, so it is left out.
func stdoutReport(b *export.Bundle, streamed bool) string {
	if !streamed || b.Insight == nil {
		return b.Markdown()
	}
	shown := *b
	shown.Insight = nil
	return shown.Markdown()
}

var (
	anaData      datasetFlags
	anaProfile   profileFlags
	anaAI        insightFlags
	anaOutput    string
	anaExports   []string
	anaInsights  bool
	anaNoHistory bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX/Parquet file and optionally ask an LLM for insights",
	Example: `  datalens analyze sales.csv
  datalens analyze sales.csv --require revenue=numeric --require day=datetime
  datalens analyze sales.xlsx --sheet-name Q4 --missing median --outlier-action cap
  datalens analyze sales.csv --insights --provider groq --export report.md --export clean.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		po, err := anaData.options()
		if err != nil {
			return err
		}
		anaProfile.apply(&po.Profile)

		res, err := runPipeline(path, po)
		if err != nil {
			return err
		}
		md := res.Report.Markdown()
		out := cmd.OutOrStdout()

		var in *insights.Insight
		if anaInsights || anaAI.question != "" {
			if anaAI.stream {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.Subtle("(streaming insights)"))
			}
			in, err = generateInsights(md, &anaAI, out)
			if err != nil {
				return err
			}
		}

		bundle := &export.Bundle{
			Report:   res.Report,
			Cleaning: res.Cleaning,
			Insight:  in,
			Dataset:  res.Dataset,
			Created:  time.Now(),
		}
		if anaOutput != "" {
			if err := utils.SafeWriteFile(anaOutput, []byte(bundle.Markdown())); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintln(out, cli.Success("Wrote analysis to "+anaOutput))
		} else {
			fmt.Fprintln(out, stdoutReport(bundle, anaAI.stream))
		}
		for _, p := range anaExports {
			if err := export.Write(p, bundle); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.Success("Exported "+p))
		}
		if in != nil {
			if in.Priced {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.Subtle(fmt.Sprintf("tokens: %d in / %d out, est. cost $%.5f", in.Usage.PromptTokens, in.Usage.CompletionTokens, in.CostUSD)))
			}
		}
		if !anaNoHistory {
			if id := recordRun(path, res, bundle.Markdown(), in); id != "" {
				logging.Debug("run recorded", logging.Fields{"id": id})
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	fs := analyzeCmd.Flags()
	anaData.register(fs)
	anaProfile.register(fs)
	anaAI.register(fs)
	fs.StringVarP(&anaOutput, "output", "o", "", "write the Markdown report to this path instead of stdout")
	fs.StringArrayVar(&anaExports, "export", nil, "export to .md|.txt|.csv|.parquet (repeatable)")
	fs.BoolVar(&anaInsights, "insights", false, "ask the configured LLM for insights on the report")
	fs.BoolVar(&anaNoHistory, "no-history", false, "do not record this run in the history database")
}
