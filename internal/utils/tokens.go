package utils

import "strings"

// Token estimation uses the rough 1 token ~= 4 characters heuristic; it is
// only used for prompt budgeting, never for billing.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit truncates text to roughly fit within a token limit.
// When a newline falls in the last quarter of the kept text the cut moves
// back to it so Markdown lines stay whole.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	out := string(runes[:charLimit])
	if i := strings.LastIndexByte(out, '\n'); i >= len(out)*3/4 {
		out = out[:i+1]
	}
	return out
}

// TokenBreakdown returns a simple breakdown map of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
