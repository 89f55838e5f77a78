package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// CompactOptions bounds the size of a compacted value. Zero fields mean no
// limit.
type CompactOptions struct {
	MaxArrayItems int // Keep the first N items of each array
	MaxStringLen  int // Keep the first N bytes of each string
	MaxDepth      int // Replace containers nested deeper than N
}

// DefaultCompactOptions keeps three items per array and 500 bytes per string.
func DefaultCompactOptions() CompactOptions {
	return CompactOptions{MaxArrayItems: 3, MaxStringLen: 500}
}

// Compact returns a copy of v with long arrays and strings cut down. A cut
// array ends with a string item "... (N more items)"; a cut string ends with
// "... (N more chars)". Members keep their source order.
func Compact(v Value, opts CompactOptions) Value {
	return compact(v, opts, 0)
}

func compact(v Value, opts CompactOptions, depth int) Value {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth && (v.Kind == KindObject || v.Kind == KindArray) {
		return Value{Kind: KindString, Str: "[max depth]"}
	}

	switch v.Kind {
	case KindString:
		if opts.MaxStringLen <= 0 || len(v.Str) <= opts.MaxStringLen {
			return v
		}
		cut := opts.MaxStringLen
		for cut > 0 && !utf8.RuneStart(v.Str[cut]) {
			cut--
		}
		return Value{Kind: KindString, Str: fmt.Sprintf("%s... (%d more chars)", v.Str[:cut], len(v.Str)-cut)}
	case KindArray:
		n := len(v.Items)
		if opts.MaxArrayItems > 0 && n > opts.MaxArrayItems {
			n = opts.MaxArrayItems
		}
		items := make([]Value, 0, n+1)
		for _, item := range v.Items[:n] {
			items = append(items, compact(item, opts, depth+1))
		}
		if rest := len(v.Items) - n; rest > 0 {
			items = append(items, Value{Kind: KindString, Str: fmt.Sprintf("... (%d more items)", rest)})
		}
		return Value{Kind: KindArray, Items: items}
	case KindObject:
		members := make([]Member, len(v.Members))
		for i, m := range v.Members {
			members[i] = Member{Key: m.Key, Value: compact(m.Value, opts, depth+1)}
		}
		return Value{Kind: KindObject, Members: members}
	}
	return v
}

// MarshalJSON encodes v with members in source order and numbers as their
// original literals.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindString:
		return encodeString(buf, v.Str)
	case KindNumber:
		if v.Num == "" {
			buf.WriteByte('0')
		} else {
			buf.WriteString(v.Num.String())
		}
	case KindBoolean:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	default:
		buf.WriteString("null")
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
