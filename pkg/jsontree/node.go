package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind is the JSON type of a node.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase JSON type name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	}
	return "unknown"
}

// Node is one element of a parsed tree.
type Node struct {
	// Key is the entry key in the parent object, or "[i]" for array
	// elements. Empty for roots.
	Key string
	// Path identifies the node within its tree: "" for the root, then
	// "/"-separated keys and indexes with "~" and "/" escaped as in
	// JSON Pointer.
	Path     string
	Value    Value
	Kind     Kind
	Level    int
	Children []*Node
}

// Parse decodes text and builds its node tree. It returns one root per
// top-level value; on error no nodes are returned.
func Parse(text []byte) ([]*Node, error) {
	v, err := Decode(text)
	if err != nil {
		return nil, err
	}
	return []*Node{Build(v)}, nil
}

// Build converts a decoded value into a root node.
func Build(v Value) *Node {
	return build(v, "", "", 0)
}

func build(v Value, key, path string, level int) *Node {
	n := &Node{Key: key, Path: path, Value: v, Kind: v.Kind, Level: level}

	switch v.Kind {
	case KindObject:
		members := slices.Clone(v.Members)
		slices.SortFunc(members, func(a, b Member) int {
			return strings.Compare(a.Key, b.Key)
		})
		n.Children = make([]*Node, len(members))
		for i, m := range members {
			n.Children[i] = build(m.Value, m.Key, path+"/"+escapePathSegment(m.Key), level+1)
		}
	case KindArray:
		n.Children = make([]*Node, len(v.Items))
		for i, item := range v.Items {
			idx := strconv.Itoa(i)
			n.Children[i] = build(item, "["+idx+"]", path+"/"+idx, level+1)
		}
	case KindString, KindNumber, KindBoolean, KindNull:
		// leaf
	}

	return n
}

var pathEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePathSegment(s string) string {
	return pathEscaper.Replace(s)
}

// HasChildren reports whether the node can be expanded.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// IsRoot reports whether the node is a top-level value.
func (n *Node) IsRoot() bool {
	return n.Level == 0
}

// Label is the text shown before the value: the key, or "root" for roots.
func (n *Node) Label() string {
	if n.IsRoot() {
		return "root"
	}
	return n.Key
}

// Display renders the node's value: an entry count for containers and the
// literal JSON form for leaves.
func (n *Node) Display() string {
	switch n.Kind {
	case KindObject:
		return countSummary("{", len(n.Value.Members), "key", "keys", "}")
	case KindArray:
		return countSummary("[", len(n.Value.Items), "item", "items", "]")
	case KindString:
		return quote(n.Value.Str)
	case KindNumber:
		return n.Value.Num.String()
	case KindBoolean:
		return strconv.FormatBool(n.Value.Bool)
	case KindNull:
		return "null"
	}
	return ""
}

func countSummary(open string, count int, singular, plural, closing string) string {
	noun := plural
	if count == 1 {
		noun = singular
	}
	return fmt.Sprintf("%s%d %s%s", open, count, noun, closing)
}

// quote renders s as a JSON string literal without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Find returns the node with the given path, or nil.
func Find(roots []*Node, path string) *Node {
	for _, r := range roots {
		if found := find(r, path); found != nil {
			return found
		}
	}
	return nil
}

func find(n *Node, path string) *Node {
	if n.Path == path {
		return n
	}
	if !strings.HasPrefix(path, n.Path+"/") {
		return nil
	}
	for _, c := range n.Children {
		if found := find(c, path); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node in pre-order.
func Walk(roots []*Node, fn func(*Node)) {
	for _, r := range roots {
		walk(r, fn)
	}
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		walk(c, fn)
	}
}
