// Package conversations reads chat exports (conversations.json) and renders
// a single conversation as a readable transcript.
package conversations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("conversation not found")
	ErrAmbiguous = errors.New("conversation selector matches more than one conversation")
)

// TimeLayout is how message timestamps are shown.
const TimeLayout = "2006-01-02 15:04:05"

type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type Conversation struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	Messages  []Message `json:"chat_messages"`
}

// LoadFile reads an export whose root is an array of conversations.
func LoadFile(path string) ([]Conversation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	return Parse(b)
}

func Parse(data []byte) ([]Conversation, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("conversations file is empty")
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.New("conversations file must contain a JSON array of conversations")
	}
	var convs []Conversation
	if err := json.Unmarshal([]byte(trimmed), &convs); err != nil {
		return nil, fmt.Errorf("parse conversations: %w", err)
	}
	return convs, nil
}

// Find resolves sel against convs. It tries, in order: an exact name, a
// case-insensitive name, a 1-based position, then a uuid prefix.
func Find(convs []Conversation, sel string) (*Conversation, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrNotFound)
	}
	if c, err := pick(convs, sel, func(c Conversation) bool { return c.Name == sel }); c != nil || err != nil {
		return c, err
	}
	if c, err := pick(convs, sel, func(c Conversation) bool { return strings.EqualFold(c.Name, sel) }); c != nil || err != nil {
		return c, err
	}
	if n, err := strconv.Atoi(sel); err == nil && n >= 1 && n <= len(convs) {
		return &convs[n-1], nil
	}
	if c, err := pick(convs, sel, func(c Conversation) bool { return c.UUID != "" && strings.HasPrefix(c.UUID, sel) }); c != nil || err != nil {
		return c, err
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, sel)
}

func pick(convs []Conversation, sel string, match func(Conversation) bool) (*Conversation, error) {
	var found *Conversation
	for i := range convs {
		if !match(convs[i]) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguous, sel)
		}
		found = &convs[i]
	}
	return found, nil
}

// FormatTime renders an ISO-8601 timestamp as TimeLayout, keeping its
// offset. Values that do not parse are returned unchanged.
func FormatTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(TimeLayout)
		}
	}
	return raw
}

// SenderLabel upper-cases the first letter and lower-cases the rest.
func SenderLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// DisplayName falls back to the uuid for untitled conversations.
func (c Conversation) DisplayName() string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	if c.UUID != "" {
		return "(untitled " + c.UUID + ")"
	}
	return "(untitled)"
}

// Markdown renders the transcript: sender, text, timestamp, separator.
func (c Conversation) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chat: %s\n\n", c.DisplayName())
	if len(c.Messages) == 0 {
		b.WriteString("_No messages._\n")
		return b.String()
	}
	for _, m := range c.Messages {
		fmt.Fprintf(&b, "**%s**\n\n", SenderLabel(m.Sender))
		b.WriteString(strings.TrimRight(m.Text, "\n"))
		b.WriteString("\n\n")
		if ts := FormatTime(m.CreatedAt); ts != "" {
			fmt.Fprintf(&b, "_%s_\n\n", ts)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}
