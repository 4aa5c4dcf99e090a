package conversations

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `[
  {"uuid": "a1b2-c3", "name": "Trip", "created_at": "2024-05-01T10:00:00Z", "chat_messages": [
    {"sender": "human", "text": "hi there", "created_at": "2024-05-01T10:00:00.123456Z"},
    {"sender": "assistant", "text": "hello", "created_at": "2024-05-01T10:00:05+02:00"}
  ]},
  {"uuid": "d4e5-f6", "name": "trip", "chat_messages": []},
  {"uuid": "g7h8", "name": "Budget", "chat_messages": [
    {"sender": "HUMAN", "text": "sum it", "created_at": "yesterday"}
  ]}
]`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	convs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "Trip", convs[0].Name)
	require.Len(t, convs[0].Messages, 2)
	assert.Equal(t, "assistant", convs[0].Messages[1].Sender)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("  "))
	assert.Error(t, err)
	_, err = Parse([]byte(`{"name": "x"}`))
	assert.ErrorContains(t, err, "JSON array")
	_, err = Parse([]byte(`[{"name": `))
	assert.ErrorContains(t, err, "parse conversations")
}

func TestFind(t *testing.T) {
	convs, err := Parse([]byte(export))
	require.NoError(t, err)

	c, err := Find(convs, "Trip")
	require.NoError(t, err)
	assert.Equal(t, "a1b2-c3", c.UUID)

	c, err = Find(convs, "budget")
	require.NoError(t, err)
	assert.Equal(t, "g7h8", c.UUID)

	c, err = Find(convs, "2")
	require.NoError(t, err)
	assert.Equal(t, "d4e5-f6", c.UUID)

	c, err = Find(convs, "g7")
	require.NoError(t, err)
	assert.Equal(t, "Budget", c.Name)

	_, err = Find(convs, "TRIP")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = Find(convs, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2024-05-01 10:00:00", FormatTime("2024-05-01T10:00:00.123456Z"))
	assert.Equal(t, "2024-05-01 10:00:05", FormatTime("2024-05-01T10:00:05+02:00"))
	assert.Equal(t, "2024-05-01 10:00:05", FormatTime("2024-05-01T10:00:05"))
	assert.Equal(t, "yesterday", FormatTime("yesterday"))
}

func TestSenderLabel(t *testing.T) {
	assert.Equal(t, "Human", SenderLabel("human"))
	assert.Equal(t, "Human", SenderLabel("HUMAN"))
	assert.Equal(t, "Unknown", SenderLabel(" "))
}

func TestMarkdown(t *testing.T) {
	convs, err := Parse([]byte(export))
	require.NoError(t, err)

	md := convs[0].Markdown()
	assert.True(t, strings.HasPrefix(md, "# Chat: Trip\n"))
	human := strings.Index(md, "**Human**")
	text := strings.Index(md, "hi there")
	ts := strings.Index(md, "_2024-05-01 10:00:00_")
	require.True(t, human >= 0 && text > human && ts > text, md)
	assert.Equal(t, 2, strings.Count(md, "---\n"))
	assert.Contains(t, md, "**Assistant**")

	assert.Contains(t, convs[1].Markdown(), "_No messages._")
	assert.Equal(t, "(untitled x)", Conversation{UUID: "x"}.DisplayName())
}
