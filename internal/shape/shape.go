// Package shape infers a JSON Schema outline from parsed body trees.
//
// The outline is what a reader of a captured body usually wants first: which
// fields exist, what types they hold and which of them are always present.
// Numbers are classified from their literal text, so 1 is an integer and 1.0
// is a number, exactly as the body was written.
package shape

import (
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/httpinspect/pkg/jsontree"
)

// Draft is the $schema URI placed on root outlines.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Outline is an inferred schema plus tree statistics.
type Outline struct {
	Schema   *jsonschema.Schema
	Nodes    int
	MaxDepth int
}

// Infer builds an outline from one parsed body. Object properties present in
// the body are required unless their value is null.
func Infer(roots []*jsontree.Node) *Outline {
	out := &Outline{}
	schemas := make([]*jsonschema.Schema, 0, len(roots))
	for _, root := range roots {
		schemas = append(schemas, fromNode(root))
	}
	jsontree.Walk(roots, func(n *jsontree.Node) {
		out.Nodes++
		out.MaxDepth = max(out.MaxDepth, n.Level)
	})

	out.Schema = Merge(schemas...)
	out.Schema.Version = Draft
	return out
}

// InferAll parses each body and merges their outlines. Bodies that fail to
// parse are skipped and counted.
func InferAll(bodies ...[]byte) (*Outline, int) {
	var (
		schemas []*jsonschema.Schema
		skipped int
		out     = &Outline{}
	)
	for _, body := range bodies {
		roots, err := jsontree.Parse(body)
		if err != nil {
			skipped++
			continue
		}
		o := Infer(roots)
		o.Schema.Version = ""
		schemas = append(schemas, o.Schema)
		out.Nodes += o.Nodes
		out.MaxDepth = max(out.MaxDepth, o.MaxDepth)
	}
	if len(schemas) == 0 {
		return nil, skipped
	}
	out.Schema = Merge(schemas...)
	out.Schema.Version = Draft
	return out, skipped
}

func fromNode(n *jsontree.Node) *jsonschema.Schema {
	switch n.Kind {
	case jsontree.KindNull:
		return &jsonschema.Schema{Type: "null"}
	case jsontree.KindBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case jsontree.KindString:
		return &jsonschema.Schema{Type: "string"}
	case jsontree.KindNumber:
		if isIntegerLiteral(n.Value.Num.String()) {
			return &jsonschema.Schema{Type: "integer"}
		}
		return &jsonschema.Schema{Type: "number"}
	case jsontree.KindArray:
		s := &jsonschema.Schema{Type: "array"}
		if len(n.Children) == 0 {
			return s
		}
		items := make([]*jsonschema.Schema, 0, len(n.Children))
		for _, c := range n.Children {
			items = append(items, fromNode(c))
		}
		s.Items = Merge(items...)
		return s
	case jsontree.KindObject:
		s := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		// children are already sorted by key
		for _, c := range n.Children {
			s.Properties.Set(c.Key, fromNode(c))
			if c.Kind != jsontree.KindNull {
				s.Required = append(s.Required, c.Key)
			}
		}
		return s
	default:
		return &jsonschema.Schema{}
	}
}

func isIntegerLiteral(lit string) bool {
	return lit != "" && !strings.ContainsAny(lit, ".eE")
}

// Merge combines schemas inferred from different samples. Same-typed objects
// merge their properties and keep only the keys required by every sample;
// mixed types become anyOf. An integer/number mix widens to number.
func Merge(schemas ...*jsonschema.Schema) *jsonschema.Schema {
	switch len(schemas) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return schemas[0]
	}

	byType := make(map[string][]*jsonschema.Schema)
	var order []string
	for _, s := range schemas {
		for _, part := range flatten(s) {
			if _, seen := byType[part.Type]; !seen {
				order = append(order, part.Type)
			}
			byType[part.Type] = append(byType[part.Type], part)
		}
	}

	if ints, ok := byType["integer"]; ok {
		if nums, ok := byType["number"]; ok {
			byType["number"] = append(nums, ints...)
			delete(byType, "integer")
			order = slices.DeleteFunc(order, func(t string) bool { return t == "integer" })
		}
	}
	slices.Sort(order)

	merged := make([]*jsonschema.Schema, 0, len(order))
	for _, t := range order {
		group := byType[t]
		switch t {
		case "object":
			merged = append(merged, mergeObjects(group))
		case "array":
			merged = append(merged, mergeArrays(group))
		default:
			merged = append(merged, &jsonschema.Schema{Type: t})
		}
	}
	if len(merged) == 1 {
		return merged[0]
	}
	return &jsonschema.Schema{AnyOf: merged}
}

// flatten expands an anyOf produced by an earlier merge.
func flatten(s *jsonschema.Schema) []*jsonschema.Schema {
	if s.Type == "" && len(s.AnyOf) > 0 {
		return s.AnyOf
	}
	return []*jsonschema.Schema{s}
}

func mergeObjects(group []*jsonschema.Schema) *jsonschema.Schema {
	if len(group) == 1 {
		return group[0]
	}

	props := make(map[string][]*jsonschema.Schema)
	requiredCount := make(map[string]int)
	for _, s := range group {
		if s.Properties != nil {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				props[pair.Key] = append(props[pair.Key], pair.Value)
			}
		}
		for _, k := range s.Required {
			requiredCount[k]++
		}
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, k := range keys {
		out.Properties.Set(k, Merge(props[k]...))
		if requiredCount[k] == len(group) {
			out.Required = append(out.Required, k)
		}
	}
	return out
}

func mergeArrays(group []*jsonschema.Schema) *jsonschema.Schema {
	if len(group) == 1 {
		return group[0]
	}
	var items []*jsonschema.Schema
	for _, s := range group {
		if s.Items != nil {
			items = append(items, s.Items)
		}
	}
	out := &jsonschema.Schema{Type: "array"}
	if len(items) > 0 {
		out.Items = Merge(items...)
	}
	return out
}
