package jsoninspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversations = `[
  {"name": "Trip", "uuid": "a1", "chat_messages": [
    {"sender": "human", "text": "hi", "created_at": "2024-05-01T10:00:00Z"},
    {"sender": "assistant", "text": "hello", "created_at": "2024-05-01T10:00:05Z"}
  ]},
  {"name": "Budget", "score": 0.5, "archived": false, "owner": null, "chat_messages": []}
]`

func TestAnalyzeListOfItems(t *testing.T) {
	a, err := Analyze([]byte(conversations))
	require.NoError(t, err)
	assert.Equal(t, ListOfItems, a.Structure)
	assert.Equal(t, 2, a.TotalItems)
	assert.Equal(t, []string{"archived", "chat_messages", "name", "owner", "score", "uuid"}, a.RootKeys)

	nested := map[string]int{}
	for _, c := range a.Nested {
		nested[c.Name] = c.Count
	}
	// two items, two messages, plus two chat_messages arrays
	assert.Equal(t, map[string]int{"dict": 4, "list": 2}, nested)

	types := map[string]int{}
	for _, c := range a.ValueTypes {
		types[c.Name] = c.Count
	}
	assert.Equal(t, 9, types["str"])
	assert.Equal(t, 2, types["list"])
	assert.Equal(t, 2, types["dict"])
	assert.Equal(t, 1, types["float"])
	assert.Equal(t, 1, types["bool"])
	assert.Equal(t, 1, types["NoneType"])
	assert.Equal(t, "str", a.ValueTypes[0].Name)

	assert.Contains(t, a.Sample, `"name": "Trip"`)
	assert.NotContains(t, a.Sample, "Budget")
}

func TestAnalyzeSingleItem(t *testing.T) {
	a, err := Analyze([]byte(`{"b": 1, "a": [1, 2.5]}`))
	require.NoError(t, err)
	assert.Equal(t, SingleItem, a.Structure)
	assert.Equal(t, 1, a.TotalItems)
	assert.Equal(t, []string{"a", "b"}, a.RootKeys)

	md := a.Markdown()
	assert.Contains(t, md, "- Structure: single_item\n")
	assert.Contains(t, md, "- Keys at root level: a, b\n")
	assert.Contains(t, md, "- Dict: 1\n")
	assert.Contains(t, md, "- List: 1\n")
	assert.Contains(t, md, "- int: 2\n")
	assert.Contains(t, md, "- float: 1\n")
	assert.Contains(t, md, "```json\n{\n  \"b\": 1,")
}

func TestAnalyzeErrors(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want error
	}{
		{`{"a": `, ErrInvalidJSON},
		{`{} {}`, ErrInvalidJSON},
		{``, ErrEmpty},
		{`[]`, ErrEmpty},
		{`{}`, ErrEmpty},
		{`null`, ErrEmpty},
		{`0`, ErrEmpty},
		{`42`, ErrUnexpectedRoot},
		{`"text"`, ErrUnexpectedRoot},
	} {
		_, err := Analyze([]byte(tc.in))
		assert.ErrorIs(t, err, tc.want, "input %q", tc.in)
	}
}

func TestAnalyzeFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(p, []byte(conversations), 0o644))
	a, err := AnalyzeFile(p)
	require.NoError(t, err)
	assert.Equal(t, 2, a.TotalItems)

	_, err = AnalyzeFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
