package shape

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"

	"github.com/usestring/httpinspect/pkg/types"
)

const (
	htmlMaxElements = 500
	xmlMaxPaths     = 200
)

// HTML outlines an HTML document: its title, how often each tag occurs, the
// elements that carry an id and the fields of every form. Counting stops
// after a fixed number of elements.
func HTML(body []byte) (*types.HTMLOutline, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	out := &types.HTMLOutline{TagCounts: make(map[string]int)}
	seen := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if seen >= htmlMaxElements {
			out.Truncated = true
			return
		}
		if n.Type == html.ElementNode {
			seen++
			tag := strings.ToLower(n.Data)
			out.TagCounts[tag]++
			if id := attr(n, "id"); id != "" {
				out.IDs = append(out.IDs, tag+"#"+id)
			}
			switch tag {
			case "title":
				if out.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					out.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "form":
				out.Forms = append(out.Forms, types.HTMLForm{
					Action: attr(n, "action"),
					Method: strings.ToUpper(attr(n, "method")),
					Fields: formFields(n),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func formFields(form *html.Node) []string {
	var fields []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "input", "select", "textarea", "button":
				if name := attr(n, "name"); name != "" && !slices.Contains(fields, name) {
					fields = append(fields, name)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	return fields
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// XML lists the distinct element paths of an XML document in document order,
// with how many elements sit at each path and which attributes they use.
// Namespace prefixes are dropped.
func XML(body []byte) ([]types.XMLPath, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}

	var paths []types.XMLPath
	index := make(map[string]int)
	var walk func(n *xmlquery.Node, parent string)
	walk = func(n *xmlquery.Node, parent string) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			path := parent + "/" + c.Data
			i, ok := index[path]
			if !ok {
				if len(paths) >= xmlMaxPaths {
					continue
				}
				i = len(paths)
				index[path] = i
				paths = append(paths, types.XMLPath{Path: path})
			}
			paths[i].Count++
			for _, a := range c.Attr {
				name := a.Name.Local
				if a.Name.Space == "xmlns" || name == "xmlns" {
					continue
				}
				if !slices.Contains(paths[i].Attributes, name) {
					paths[i].Attributes = append(paths[i].Attributes, name)
				}
			}
			walk(c, path)
		}
	}
	walk(doc, "")
	if len(paths) == 0 {
		return nil, fmt.Errorf("parsing XML: no elements")
	}
	return paths, nil
}

// Form lists the keys of a urlencoded body in sorted order.
func Form(body []byte) ([]types.FormKeyOutline, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]types.FormKeyOutline, 0, len(keys))
	for _, k := range keys {
		entry := types.FormKeyOutline{Key: k, Count: len(values[k])}
		if len(values[k]) > 0 {
			entry.Example = values[k][0]
		}
		out = append(out, entry)
	}
	return out, nil
}
