// Package jsoninspect summarizes the shape of an arbitrary JSON document.
package jsoninspect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON format in the file")
	ErrEmpty          = errors.New("the file is empty or contains no valid JSON objects")
	ErrUnexpectedRoot = errors.New("unexpected root structure in JSON file")
)

// Structure names the document's root shape.
type Structure string

const (
	ListOfItems Structure = "list_of_items"
	SingleItem  Structure = "single_item"
)

// Count is a name with an occurrence count.
type Count struct {
	Name  string
	Count int
}

// Analysis describes a JSON document. Value type names follow JSON-ish
// Python conventions: dict, list, str, int, float, bool, NoneType.
type Analysis struct {
	Structure  Structure
	TotalItems int
	RootKeys   []string
	Nested     []Count
	ValueTypes []Count
	// Sample is the first item (or the whole object), indented.
	Sample string
}

// AnalyzeFile reads and analyzes path.
func AnalyzeFile(path string) (*Analysis, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return Analyze(b)
}

// Analyze walks the document. Root keys are collected from the root
// object, or from every item when the root is an array.
func Analyze(data []byte) (*Analysis, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		if strings.TrimSpace(string(data)) == "" {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	if isFalsy(root) {
		return nil, ErrEmpty
	}

	w := newWalker()
	a := &Analysis{}
	var sample json.RawMessage
	switch v := root.(type) {
	case []any:
		a.Structure = ListOfItems
		a.TotalItems = len(v)
		for _, item := range v {
			w.walk(item, 0)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err == nil && len(items) > 0 {
			sample = items[0]
		}
	case map[string]any:
		a.Structure = SingleItem
		a.TotalItems = 1
		w.walk(v, 0)
		sample = json.RawMessage(data)
	default:
		return nil, ErrUnexpectedRoot
	}

	for k := range w.rootKeys {
		a.RootKeys = append(a.RootKeys, k)
	}
	sort.Strings(a.RootKeys)
	a.Nested = w.nested.sorted()
	a.ValueTypes = w.types.sorted()
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(sample), "", "  "); err == nil {
		a.Sample = buf.String()
	} else {
		a.Sample = "null"
	}
	return a, nil
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

type counter struct {
	order []string
	n     map[string]int
}

func (c *counter) add(name string) {
	if c.n == nil {
		c.n = map[string]int{}
	}
	if _, ok := c.n[name]; !ok {
		c.order = append(c.order, name)
	}
	c.n[name]++
}

// sorted returns counts by descending frequency, ties in first-seen order.
func (c *counter) sorted() []Count {
	out := make([]Count, len(c.order))
	for i, name := range c.order {
		out[i] = Count{Name: name, Count: c.n[name]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

type walker struct {
	rootKeys map[string]bool
	nested   counter
	types    counter
}

func newWalker() *walker { return &walker{rootKeys: map[string]bool{}} }

func (w *walker) walk(v any, depth int) {
	switch x := v.(type) {
	case map[string]any:
		w.nested.add("dict")
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if depth == 0 {
				w.rootKeys[k] = true
			}
			w.child(x[k], depth+1)
		}
	case []any:
		w.nested.add("list")
		for _, item := range x {
			w.child(item, depth+1)
		}
	default:
		w.types.add(typeName(x))
	}
}

// child counts a contained value once and descends into containers.
func (w *walker) child(v any, depth int) {
	w.types.add(typeName(v))
	switch v.(type) {
	case map[string]any, []any:
		w.walk(v, depth)
	}
}

func typeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case string:
		return "str"
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return "int"
		}
		return "float"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}

// Markdown renders the analysis as a report.
func (a *Analysis) Markdown() string {
	var b strings.Builder
	b.WriteString("# JSON Structure Analysis\n\n")
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- Structure: %s\n", a.Structure)
	fmt.Fprintf(&b, "- Total items: %d\n", a.TotalItems)
	fmt.Fprintf(&b, "- Keys at root level: %s\n\n", strings.Join(a.RootKeys, ", "))
	b.WriteString("## Nested Structures\n")
	for _, c := range a.Nested {
		fmt.Fprintf(&b, "- %s: %d\n", strings.ToUpper(c.Name[:1])+c.Name[1:], c.Count)
	}
	b.WriteString("\n## Value Types\n")
	for _, c := range a.ValueTypes {
		fmt.Fprintf(&b, "- %s: %d\n", c.Name, c.Count)
	}
	b.WriteString("\n## Sample Item\n```json\n")
	b.WriteString(a.Sample)
	b.WriteString("\n```\n")
	return b.String()
}
