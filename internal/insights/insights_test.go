package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

type stubRuntime struct {
	got  ai.GenerateRequest
	resp *ai.GenerateResponse
	err  error
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.got = req
	return s.resp, s.err
}

type streamStub struct {
	stubRuntime
	chunks []string
}

func (s *streamStub) GenerateStream(_ context.Context, req ai.GenerateRequest, onDelta func(string)) error {
	s.got = req
	for _, c := range s.chunks {
		onDelta(c)
	}
	return nil
}

func TestBuildMessagesDefaultPrompt(t *testing.T) {
	msgs, truncated := BuildMessages(Request{Context: "  a,b\n1,2  "})
	require.Len(t, msgs, 2)
	assert.False(t, truncated)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, SystemPrompt, msgs[0].Content)
	assert.Equal(t, "Analyze the following data and provide insights:\n\na,b\n1,2", msgs[1].Content)
}

func TestBuildMessagesQuestion(t *testing.T) {
	msgs, _ := BuildMessages(Request{Context: "x", Question: "Which column drives sales?"})
	assert.Equal(t, "Which column drives sales?\n\nContext:\nx", msgs[1].Content)
}

func TestBuildMessagesRespectsBudget(t *testing.T) {
	ctx := strings.Repeat("row of data\n", 2000)
	msgs, truncated := BuildMessages(Request{Context: ctx, Budget: 500})
	assert.True(t, truncated)
	total := 0
	for _, m := range msgs {
		total += utils.CountTokens(m.Content)
	}
	assert.LessOrEqual(t, total, 500)
	assert.Contains(t, msgs[1].Content, "context truncated")
}

func TestGenerateMapsResponse(t *testing.T) {
	rt := &stubRuntime{resp: &ai.GenerateResponse{
		Model:     "llama-3.1-8b-instant",
		Choices:   []ai.Choice{{Message: ai.Message{Role: "assistant", Content: "Sales rise in Q4."}}},
		Usage:     ai.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000},
		RequestID: "req_1",
	}}
	in, err := Generate(context.Background(), rt, Request{Model: "llama-3.1-8b-instant", Context: "[SCHEMA]", MaxTokens: 256}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sales rise in Q4.", in.Text)
	assert.Equal(t, "req_1", in.RequestID)
	assert.True(t, in.Priced)
	assert.InDelta(t, 0.00013, in.CostUSD, 1e-9)
	assert.Equal(t, 256, rt.got.MaxTokens)
	assert.Contains(t, in.Markdown(), "[AI INSIGHTS]")
}

func TestGenerateStreams(t *testing.T) {
	rt := &streamStub{chunks: []string{"Two ", "trends."}}
	var seen []string
	in, err := Generate(context.Background(), rt, Request{Model: "m", Context: "ctx"}, func(d string) { seen = append(seen, d) })
	require.NoError(t, err)
	assert.Equal(t, "Two trends.", in.Text)
	assert.Equal(t, []string{"Two ", "trends."}, seen)
	assert.Positive(t, in.Usage.TotalTokens)
	assert.False(t, in.Priced)
}

func TestGenerateErrors(t *testing.T) {
	_, err := Generate(context.Background(), &stubRuntime{}, Request{Model: "m", Context: "  "}, nil)
	assert.ErrorIs(t, err, ErrEmptyContext)

	boom := &ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}
	_, err = Generate(context.Background(), &stubRuntime{err: boom}, Request{Model: "m", Context: "x"}, nil)
	var authErr *ai.AuthError
	assert.True(t, errors.As(err, &authErr))
}
