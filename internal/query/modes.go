package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"gopkg.in/yaml.v3"

	"github.com/usestring/httpinspect/pkg/contenttype"
)

// Mode names an extraction language.
type Mode string

const (
	ModeJQ    Mode = "jq"
	ModeCSS   Mode = "css"
	ModeXPath Mode = "xpath"
	ModeRegex Mode = "regex"
	ModeForm  Mode = "form"
)

// ParseMode validates a mode name. The empty string is jq.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeJQ, nil
	case ModeJQ, ModeCSS, ModeXPath, ModeRegex, ModeForm:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want jq, css, xpath, regex or form)", s)
}

// DetectMode returns the natural mode for a body category.
func DetectMode(cat contenttype.Category) Mode {
	switch cat {
	case contenttype.JSON, contenttype.YAML:
		return ModeJQ
	case contenttype.HTML:
		return ModeCSS
	case contenttype.XML:
		return ModeXPath
	case contenttype.Form:
		return ModeForm
	default:
		return ModeRegex
	}
}

// Accepts reports whether a body of the given category can be queried in
// mode m.
func (m Mode) Accepts(cat contenttype.Category) bool {
	switch m {
	case ModeJQ:
		return cat == contenttype.JSON || cat == contenttype.YAML
	case ModeCSS:
		return cat == contenttype.HTML
	case ModeXPath:
		return cat == contenttype.HTML || cat == contenttype.XML
	case ModeForm:
		return cat == contenttype.Form
	case ModeRegex:
		return cat != contenttype.Binary && cat != contenttype.Empty
	}
	return false
}

// extractor feeds the values one input yields into c. It returns true when
// the collector is full and no further input should be read.
type extractor func(in Input, label string, c *collector) bool

func newExtractor(mode Mode, expression string) (extractor, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("empty %s expression", mode)
	}
	switch mode {
	case ModeJQ:
		return jqExtractor(expression)
	case ModeCSS:
		return cssExtractor(expression), nil
	case ModeXPath:
		return xpathExtractor(expression)
	case ModeRegex:
		return regexExtractor(expression)
	case ModeForm:
		return formExtractor(expression), nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// emit adds texts to c, skipping blanks.
func emit(c *collector, label string, texts []string) bool {
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if !c.add(label, text) {
			return true
		}
	}
	return false
}

func cssExtractor(selector string) extractor {
	return func(in Input, label string, c *collector) bool {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(in.Data))
		if err != nil {
			c.addError(fmt.Sprintf("%s: invalid HTML: %v", label, err))
			return false
		}
		var texts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, s.Text())
		})
		return emit(c, label, texts)
	}
}

func xpathExtractor(expression string) (extractor, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath expression: %w", err)
	}
	return func(in Input, label string, c *collector) bool {
		var texts []string
		if in.Category == contenttype.HTML {
			doc, err := htmlquery.Parse(bytes.NewReader(in.Data))
			if err != nil {
				c.addError(fmt.Sprintf("%s: invalid HTML: %v", label, err))
				return false
			}
			for _, n := range htmlquery.QuerySelectorAll(doc, expr) {
				texts = append(texts, htmlquery.InnerText(n))
			}
		} else {
			doc, err := xmlquery.Parse(bytes.NewReader(in.Data))
			if err != nil {
				c.addError(fmt.Sprintf("%s: invalid XML: %v", label, err))
				return false
			}
			for _, n := range xmlquery.QuerySelectorAll(doc, expr) {
				texts = append(texts, n.InnerText())
			}
		}
		return emit(c, label, texts)
	}, nil
}

// regexExtractor yields the first capture group of each match, or the whole
// match when the pattern has no groups.
func regexExtractor(pattern string) (extractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	group := 0
	if re.NumSubexp() > 0 {
		group = 1
	}
	return func(in Input, label string, c *collector) bool {
		for _, m := range re.FindAllSubmatch(in.Data, -1) {
			if !c.add(label, string(m[group])) {
				return true
			}
		}
		return false
	}, nil
}

// formExtractor yields the values of one key. The expression "*" or "."
// yields a single object holding every pair.
func formExtractor(key string) extractor {
	return func(in Input, label string, c *collector) bool {
		values, err := url.ParseQuery(string(in.Data))
		if err != nil {
			c.addError(fmt.Sprintf("%s: invalid form data: %v", label, err))
			return false
		}
		if key == "*" || key == "." {
			all := make(map[string]any, len(values))
			for k, vals := range values {
				if len(vals) == 1 {
					all[k] = vals[0]
					continue
				}
				list := make([]any, len(vals))
				for i, v := range vals {
					list[i] = v
				}
				all[k] = list
			}
			return !c.add(label, all)
		}
		for _, v := range values[key] {
			if !c.add(label, v) {
				return true
			}
		}
		return false
	}
}

// yamlToJSON re-encodes a YAML document as JSON so jq sees the same value
// types it would for a JSON body.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(v))
}

// normalizeYAML turns maps with non-string keys into string-keyed maps.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}
