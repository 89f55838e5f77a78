// Package query extracts values from captured bodies with jq, CSS
// selectors, XPath, regular expressions or form keys.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/httpinspect/pkg/contenttype"
	"github.com/usestring/httpinspect/pkg/jsontree"
)

// Engine executes queries against captured bodies.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Input is one body to query. Label identifies it in errors and counts.
// Category selects how a jq query decodes Data; YAML bodies are converted to
// JSON first and anything else is decoded as JSON.
type Input struct {
	Label    string
	Data     []byte
	Category contenttype.Category
}

// Result contains the results of a query.
type Result struct {
	Mode        Mode           `json:"mode"`                   // Extraction language used
	Values      []any          `json:"values"`                 // Extracted values
	Errors      []string       `json:"errors,omitempty"`       // Per-input errors
	RawCount    int            `json:"raw_count"`              // Count before deduplication
	LabelCounts map[string]int `json:"label_counts,omitempty"` // Value count per label
	Truncated   bool           `json:"truncated,omitempty"`    // Stopped at maxResults
}

// Query executes a JQ expression against one body.
func (e *Engine) Query(data []byte, expression string, deduplicate bool, maxResults int) (*Result, error) {
	return e.QueryAll([]Input{{Label: "body", Data: data}}, expression, deduplicate, maxResults)
}

// QueryAll executes a JQ expression against several bodies. The expression
// is compiled once; bodies that fail to decode or evaluate are reported in
// Errors and do not stop the others. maxResults <= 0 means no limit.
func (e *Engine) QueryAll(inputs []Input, expression string, deduplicate bool, maxResults int) (*Result, error) {
	return e.Extract(ModeJQ, inputs, expression, deduplicate, maxResults)
}

// Extract runs expression in the given mode against every input. An empty
// mode means jq. Invalid expressions fail the whole call; inputs that cannot
// be parsed in the mode are reported in Errors.
func (e *Engine) Extract(mode Mode, inputs []Input, expression string, deduplicate bool, maxResults int) (*Result, error) {
	if mode == "" {
		mode = ModeJQ
	}
	ex, err := newExtractor(mode, expression)
	if err != nil {
		return nil, err
	}

	c := newCollector(mode, deduplicate, maxResults)
	for i, in := range inputs {
		label := in.Label
		if label == "" {
			label = fmt.Sprintf("body[%d]", i)
		}
		if stop := ex(in, label, c); stop {
			break
		}
	}
	return c.result, nil
}

// collector accumulates values across inputs and enforces the result cap.
type collector struct {
	result      *Result
	deduplicate bool
	maxResults  int
	seen        map[string]bool
	seenErrors  map[string]bool
}

func newCollector(mode Mode, deduplicate bool, maxResults int) *collector {
	return &collector{
		result: &Result{
			Mode:        mode,
			Values:      make([]any, 0),
			LabelCounts: make(map[string]int),
		},
		deduplicate: deduplicate,
		maxResults:  maxResults,
		seen:        make(map[string]bool),
		seenErrors:  make(map[string]bool),
	}
}

// add records one value. It returns false once the cap is reached.
func (c *collector) add(label string, v any) bool {
	if c.maxResults > 0 && len(c.result.Values) >= c.maxResults {
		c.result.Truncated = true
		return false
	}
	c.result.RawCount++
	c.result.LabelCounts[label]++
	if c.deduplicate {
		key := valueKey(v)
		if c.seen[key] {
			return true
		}
		c.seen[key] = true
	}
	c.result.Values = append(c.result.Values, v)
	return true
}

func (c *collector) addError(msg string) {
	if !c.seenErrors[msg] {
		c.seenErrors[msg] = true
		c.result.Errors = append(c.result.Errors, msg)
	}
}

func jqExtractor(expression string) (extractor, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}
	return func(in Input, label string, c *collector) bool {
		data := in.Data
		if in.Category == contenttype.YAML {
			converted, err := yamlToJSON(data)
			if err != nil {
				c.addError(fmt.Sprintf("%s: invalid YAML: %v", label, err))
				return false
			}
			data = converted
		}

		value, err := jsontree.Decode(data)
		if err != nil {
			c.addError(fmt.Sprintf("%s: invalid JSON: %v", label, err))
			return false
		}

		iter := code.Run(value.Interface())
		for {
			v, ok := iter.Next()
			if !ok {
				return false
			}
			if err, isErr := v.(error); isErr {
				c.addError(formatJQError(label, err))
				// gojq stops an input after a runtime error
				return false
			}
			if v == nil {
				continue
			}
			if !c.add(label, v) {
				return true
			}
		}
	}, nil
}

// ValidateExpression checks that expression is valid in mode without
// executing it. An empty mode means jq.
func (e *Engine) ValidateExpression(mode Mode, expression string) error {
	if mode == "" {
		mode = ModeJQ
	}
	_, err := newExtractor(mode, expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// formatJQError adds a hint to common runtime errors. gojq reports these
// as plain errors, so the hint is chosen from the message text.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()
	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this body)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try removing '[]')"
	}
	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// valueKey creates a string key for deduplication.
func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
