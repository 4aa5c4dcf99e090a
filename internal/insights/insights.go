// Package insights turns a dataset report into an LLM prompt and asks a
// chat runtime for commentary.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// SystemPrompt frames every insight request.
const SystemPrompt = "You are an AI assistant specialized in data analysis and insights. Provide concise and relevant insights based on the given context."

const (
	analyzePrefix = "Analyze the following data and provide insights:\n\n"
	truncatedNote = "\n[context truncated to fit the token budget]\n"
)

// ErrEmptyContext is returned when there is nothing to analyze.
var ErrEmptyContext = errors.New("insight context is empty")

// Request describes one insight call.
type Request struct {
	Model string
	// Context is the data description, usually a report's Markdown.
	Context string
	// Question, when set, asks something specific about the context.
	Question    string
	MaxTokens   int
	Temperature float64
	// Budget caps the estimated prompt tokens; 0 means unlimited.
	Budget int
}

// Insight is a model answer plus what it cost.
type Insight struct {
	Text         string
	Model        string
	RequestID    string
	Usage        ai.Usage
	PromptTokens int
	Truncated    bool
	CostUSD      float64
	Priced       bool
}

// BuildMessages assembles the system and user messages. The context is cut
// to keep the estimated prompt within budget; truncated reports whether
// that happened.
func BuildMessages(req Request) (msgs []ai.Message, truncated bool) {
	body := strings.TrimSpace(req.Context)
	prefix := analyzePrefix
	if q := strings.TrimSpace(req.Question); q != "" {
		prefix = q + "\n\nContext:\n"
	}
	if req.Budget > 0 {
		overhead := utils.CountTokens(SystemPrompt) + utils.CountTokens(prefix) + utils.CountTokens(truncatedNote)
		room := req.Budget - overhead
		if room < 0 {
			room = 0
		}
		if utils.CountTokens(body) > room {
			body = utils.TruncateToTokenLimit(body, room) + truncatedNote
			truncated = true
		}
	}
	return []ai.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prefix + body},
	}, truncated
}

// Generate asks rt for insights. When onDelta is non-nil and rt can stream,
// partial output is delivered as it arrives and the usage stays estimated.
func Generate(ctx context.Context, rt ai.Runtime, req Request, onDelta func(string)) (*Insight, error) {
	if strings.TrimSpace(req.Context) == "" {
		return nil, ErrEmptyContext
	}
	msgs, truncated := BuildMessages(req)
	greq := ai.GenerateRequest{Model: req.Model, Messages: msgs, MaxTokens: req.MaxTokens, Temperature: req.Temperature}
	prompt := 0
	for _, m := range msgs {
		prompt += utils.CountTokens(m.Content)
	}
	if truncated {
		logging.Warn("insight context truncated", logging.Fields{"budget": req.Budget, "model": req.Model})
	}

	out := &Insight{Model: req.Model, PromptTokens: prompt, Truncated: truncated}
	if sr, ok := rt.(ai.StreamRuntime); ok && onDelta != nil {
		var sb strings.Builder
		err := sr.GenerateStream(ctx, greq, func(d string) {
			sb.WriteString(d)
			onDelta(d)
		})
		if err != nil {
			return nil, fmt.Errorf("stream insights: %w", err)
		}
		out.Text = sb.String()
		out.Usage = ai.Usage{PromptTokens: prompt, CompletionTokens: utils.CountTokens(out.Text)}
		out.Usage.TotalTokens = out.Usage.PromptTokens + out.Usage.CompletionTokens
	} else {
		resp, err := rt.Generate(ctx, greq)
		if err != nil {
			return nil, fmt.Errorf("generate insights: %w", err)
		}
		out.Text = resp.Text()
		out.RequestID = resp.RequestID
		out.Usage = resp.Usage
		if resp.Model != "" {
			out.Model = resp.Model
		}
	}
	out.CostUSD, out.Priced = ai.EstimateCostUSD(req.Model, out.Usage.PromptTokens, out.Usage.CompletionTokens)
	logging.Info("insights generated", logging.Fields{
		"model":             out.Model,
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
		"request_id":        out.RequestID,
	})
	return out, nil
}

// Markdown renders the insight as a report section.
func (in *Insight) Markdown() string {
	var b strings.Builder
	b.WriteString("[AI INSIGHTS]\n")
	fmt.Fprintf(&b, "Model: %s\n", in.Model)
	if in.Truncated {
		b.WriteString("Note: context was truncated to fit the token budget.\n")
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(in.Text))
	b.WriteString("\n")
	return b.String()
}
