package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 900}, // heuristic ~ 1 tok ≈ 4 chars
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	n := utils.CountTokens(trunc)
	if n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
}

func TestTruncateKeepsWholeLines(t *testing.T) {
	text := strings.Repeat("0123456789abcdef\n", 40)
	trunc := utils.TruncateToTokenLimit(text, 50)
	if !strings.HasSuffix(trunc, "\n") {
		t.Fatalf("expected cut at a line boundary, got tail %q", trunc[len(trunc)-5:])
	}
	if utils.CountTokens(trunc) > 50 {
		t.Fatalf("truncation exceeds limit")
	}
}

func TestTokenBreakdown(t *testing.T) {
	got := utils.TokenBreakdown(map[string]string{"system": "abcdefgh", "empty": ""})
	if got["system"] != 2 || got["empty"] != 0 {
		t.Fatalf("unexpected breakdown: %v", got)
	}
}
