package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/cli"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog or list models a provider offers",
	Example: `  datalens models list
  datalens models list --provider groq --remote --filter llama
  datalens models validate --provider groq
  datalens models sync --file ./models.json`,
}

var (
	mlProvider   string
	mlRemote     bool
	mlFilter     []string
	mlOllamaHost string
)

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog models with pricing, or --remote to ask the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !mlRemote {
			var rows [][]string
			for _, name := range ai.CatalogNames(mlProvider) {
				mi, _ := ai.LookupModel(name)
				rows = append(rows, []string{
					name, mi.Provider, strconv.Itoa(mi.ContextTokens),
					fmt.Sprintf("%.5f", mi.InputPerK), fmt.Sprintf("%.5f", mi.OutputPerK),
				})
			}
			if len(rows) == 0 {
				return fmt.Errorf("no catalog models for provider %q", mlProvider)
			}
			fmt.Fprint(out, cli.Table([]string{"MODEL", "PROVIDER", "CONTEXT", "IN/1K", "OUT/1K"}, rows))
			return nil
		}
		models, provider, err := remoteModels(mlProvider)
		if err != nil {
			return err
		}
		ids := ai.FilterModelIDs(models, mlFilter...)
		fmt.Fprintln(out, cli.Title(fmt.Sprintf("%s: %d models", provider, len(ids))))
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	},
}

var modelsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the provider accepts the configured API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		models, provider, err := remoteModels(mlProvider)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success(fmt.Sprintf("%s key is valid (%d models available)", provider, len(models))))
		return nil
	},
}

func remoteModels(providerFlag string) ([]ai.RemoteModel, string, error) {
	rt, provider, err := buildRuntime(cfg, runtimeOptions{ProviderFlag: providerFlag, OllamaHost: mlOllamaHost})
	if err != nil {
		return nil, "", err
	}
	lister, ok := rt.(ai.ModelLister)
	if !ok {
		return nil, provider, fmt.Errorf("provider %s cannot list models", provider)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, provider, explainAIError(err, provider)
	}
	return models, provider, nil
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model pricing from a JSON file into the catalog and show it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success(fmt.Sprintf("Merged %d models from %s", len(m), syncPath)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsValidateCmd, modelsSyncCmd)
	for _, c := range []*cobra.Command{modelsListCmd, modelsValidateCmd} {
		c.Flags().StringVar(&mlProvider, "provider", "", "provider: groq|openrouter|ollama (default from config)")
		c.Flags().StringVar(&mlOllamaHost, "ollama-host", "", "override Ollama host")
	}
	modelsListCmd.Flags().BoolVar(&mlRemote, "remote", false, "ask the provider for its model ids (validates the API key)")
	modelsListCmd.Flags().StringSliceVar(&mlFilter, "filter", nil, "only ids containing any of these substrings")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
}
