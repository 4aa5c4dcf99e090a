package ai

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Model metadata and simple pricing helpers for UX warnings.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = func() map[string]ModelInfo {
	m := map[string]ModelInfo{}
	add := func(provider string, ctx int, in, out float64, names ...string) {
		for _, n := range names {
			m[n] = ModelInfo{Name: n, Provider: provider, ContextTokens: ctx, InputPerK: in, OutputPerK: out}
		}
	}
	add(ProviderGroq, 131072, 0.00005, 0.00008, "llama-3.1-8b-instant")
	add(ProviderGroq, 131072, 0.00059, 0.00079, "llama-3.3-70b-versatile")
	add(ProviderGroq, 8192, 0.0002, 0.0002, "gemma2-9b-it")
	add(ProviderGroq, 32768, 0.00024, 0.00024, "mixtral-8x7b-32768")
	add(ProviderOpenRouter, 128000, 0, 0, "deepseek/deepseek-r1:free")
	add(ProviderOpenRouter, 128000, 0.00015, 0.0006, "openai/gpt-4o-mini")
	add(ProviderOpenRouter, 128000, 0.0025, 0.01, "openai/gpt-4o")
	add(ProviderOpenRouter, 200000, 0.003, 0.015, "anthropic/claude-3.5-sonnet")
	add(ProviderOpenRouter, 1000000, 0.0001, 0.0004, "google/gemini-2.0-flash-001")
	add(ProviderOpenRouter, 131072, 0, 0, "meta-llama/llama-3.1-8b-instruct")
	add(ProviderOllama, 8192, 0, 0, "llama3:latest", "llama3.1:8b", "mistral:7b-instruct", "gemma2:9b")
	add(ProviderOllama, 128000, 0, 0, "phi3:mini-128k-instruct")
	return m
}()

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// PresetCatalog returns the built-in entries for one provider.
func PresetCatalog(provider string) (map[string]ModelInfo, bool) {
	out := map[string]ModelInfo{}
	for k, v := range models {
		if v.Provider == provider {
			out[k] = v
		}
	}
	return out, len(out) > 0
}

var recommended = map[string]map[string]string{
	ProviderGroq: {
		"cheap":        "llama-3.1-8b-instant",
		"balanced":     "llama-3.3-70b-versatile",
		"high-context": "llama-3.3-70b-versatile",
	},
	ProviderOpenRouter: {
		"cheap":        "deepseek/deepseek-r1:free",
		"balanced":     "openai/gpt-4o",
		"high-context": "google/gemini-2.0-flash-001",
	},
	ProviderOllama: {
		"cheap":        "llama3.1:8b",
		"balanced":     "llama3.1:8b",
		"high-context": "phi3:mini-128k-instruct",
	},
}

// RecommendModel returns a recommended model name for a given tier and provider.
// If provider is empty, defaults to groq. Tiers: cheap|balanced|high-context.
func RecommendModel(provider, tier string) (string, bool) {
	if provider == "" {
		provider = ProviderGroq
	}
	name, ok := recommended[provider][tier]
	return name, ok
}

// FilterModelIDs keeps ids containing any of the given substrings, case
// insensitively. With no substrings every id is kept.
func FilterModelIDs(list []RemoteModel, subs ...string) []string {
	var out []string
	for _, m := range list {
		if len(subs) == 0 || containsAnyFold(m.ID, subs...) {
			out = append(out, m.ID)
		}
	}
	return out
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example entry:
// { "openai/gpt-4o-mini": {"Name":"openai/gpt-4o-mini","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// CatalogNames lists catalog entries, optionally for one provider, sorted.
func CatalogNames(provider string) []string {
	var out []string
	for k, v := range models {
		if provider == "" || strings.EqualFold(v.Provider, provider) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
