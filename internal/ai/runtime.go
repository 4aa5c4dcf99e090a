package ai

import "context"

// Runtime is the minimal chat surface implemented by every backend.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
// Implementors should invoke onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// ModelLister is implemented by runtimes that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]RemoteModel, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
	ProviderOllama     = "ollama"
)

// Providers lists the registered provider ids in display order.
func Providers() []string {
	return []string{ProviderGroq, ProviderOpenRouter, ProviderOllama}
}
