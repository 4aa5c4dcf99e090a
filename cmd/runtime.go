package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
)

type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
}

// resolveProvider normalizes a provider flag, falling back to config and
// then Groq.
func resolveProvider(c *cfgpkg.Global, flag string) string {
	name := strings.ToLower(strings.TrimSpace(flag))
	if name == "" && c != nil && c.DefaultProvider != "" {
		name = strings.ToLower(c.DefaultProvider)
	}
	switch name {
	case "":
		return ai.ProviderGroq
	case "local":
		return ai.ProviderOllama
	case "openai", "anthropic", "google", "gemini", "meta":
		return ai.ProviderOpenRouter
	}
	return name
}

// resolveModel picks the flag, then config, then the provider's balanced tier.
func resolveModel(c *cfgpkg.Global, provider, flag string) string {
	if m := strings.TrimSpace(flag); m != "" {
		return m
	}
	if c != nil && c.DefaultModel != "" {
		if mi, ok := ai.LookupModel(c.DefaultModel); !ok || mi.Provider == "" || mi.Provider == provider {
			return c.DefaultModel
		}
	}
	if m, ok := ai.RecommendModel(provider, "balanced"); ok {
		return m
	}
	return ""
}

func buildRuntime(c *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}
	if c != nil {
		if c.HTTPTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(c.HTTPTimeoutSec) * time.Second
		}
		if c.RetryMaxAttempts > 0 {
			rc.RetryMax = c.RetryMaxAttempts
		}
		if c.RetryBaseDelayMs > 0 {
			rc.BaseDelay = time.Duration(c.RetryBaseDelayMs) * time.Millisecond
		}
		if c.RetryMaxDelayMs > 0 {
			rc.MaxDelay = time.Duration(c.RetryMaxDelayMs) * time.Millisecond
		}
	}

	provider := resolveProvider(c, opts.ProviderFlag)
	switch provider {
	case ai.ProviderGroq:
		rc.APIKey = os.Getenv("GROQ_API_KEY")
		if rc.APIKey == "" && c != nil {
			rc.APIKey = c.GroqAPIKey
		}
		rc.BaseURL = os.Getenv("DATALENS_GROQ_BASE_URL")
	case ai.ProviderOpenRouter:
		rc.APIKey = os.Getenv("OPENROUTER_API_KEY")
		if rc.APIKey == "" && c != nil {
			rc.APIKey = c.APIKey
		}
		rc.BaseURL = os.Getenv("DATALENS_OPENROUTER_BASE_URL")
	case ai.ProviderOllama:
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" {
			host = os.Getenv("DATALENS_OLLAMA_HOST")
		}
		if host == "" && c != nil {
			host = c.OllamaHost
		}
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		rc.Host = host
	}
	rt, err := ai.MustRuntime(provider, rc)
	if err != nil {
		return nil, "", err
	}
	return rt, provider, nil
}

// explainAIError turns typed provider errors into actionable messages.
func explainAIError(err error, provider string) error {
	if err == nil {
		return nil
	}
	var (
		missing *ai.MissingKeyError
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &missing):
		return err
	case errors.As(err, &unreach):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running and the host is correct (DATALENS_OLLAMA_HOST or config 'ollama_host'): %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed for %s. Check the API key: %w", provider, err)
	case errors.As(err, &rlErr):
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("model not found locally. Pull it first (ollama pull <model>): %w", err)
		}
		return fmt.Errorf("model not found. Run 'datalens models list --remote' to see available ids: %w", err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request rejected (check model name and max tokens): %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	}
	return err
}
