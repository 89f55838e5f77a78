package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// MaxDepth bounds container nesting accepted by Parse.
const MaxDepth = 1000

// Member is one key/value entry of a JSON object, in source order.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON value. Kind selects which field is meaningful:
// Str for KindString, Num for KindNumber, Bool for KindBoolean, Members for
// KindObject and Items for KindArray. KindNull uses none.
type Value struct {
	Kind    Kind
	Str     string
	Num     json.Number
	Bool    bool
	Members []Member
	Items   []Value
}

// ParseError reports JSON text that could not be decoded.
type ParseError struct {
	Offset int64  // Byte offset where decoding stopped
	Msg    string // Decoder diagnostic
	Err    error  // Underlying decoder error, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsontree: parse error at offset %d: %s", e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode decodes exactly one JSON value from text.
func Decode(text []byte) (Value, error) {
	if !utf8.Valid(text) {
		return Value{}, &ParseError{Msg: "invalid UTF-8 text"}
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return Value{}, toParseError(dec, err)
	}

	// Anything after the first value is an error, not a second document.
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, &ParseError{Offset: dec.InputOffset(), Msg: "unexpected data after top-level value"}
		}
		return Value{}, toParseError(dec, err)
	}

	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("exceeded max nesting depth %d", MaxDepth)
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case json.Number:
		return Value{Kind: KindNumber, Num: t}, nil
	case bool:
		return Value{Kind: KindBoolean, Bool: t}, nil
	case nil:
		return Value{Kind: KindNull}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	v := Value{Kind: KindObject, Members: []Member{}}
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected object key, got %v", tok)
		}
		child, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		// Last duplicate wins, matching encoding/json map semantics.
		if i, dup := seen[key]; dup {
			v.Members[i].Value = child
			continue
		}
		seen[key] = len(v.Members)
		v.Members = append(v.Members, Member{Key: key, Value: child})
	}

	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	v := Value{Kind: KindArray, Items: []Value{}}

	for dec.More() {
		child, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, child)
	}

	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func toParseError(dec *json.Decoder, err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}

	offset := dec.InputOffset()
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}

	msg := err.Error()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		msg = "unexpected end of JSON input"
	}
	return &ParseError{Offset: offset, Msg: msg, Err: err}
}

// Interface converts v to the plain Go form produced by json.Unmarshal into
// an any, with numbers as float64. Numbers that do not fit a float64 are kept
// as their literal string.
func (v Value) Interface() any {
	switch v.Kind {
	case KindObject:
		m := make(map[string]any, len(v.Members))
		for _, mem := range v.Members {
			m[mem.Key] = mem.Value.Interface()
		}
		return m
	case KindArray:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.Interface()
		}
		return items
	case KindString:
		return v.Str
	case KindNumber:
		f, err := v.Num.Float64()
		if err != nil {
			return v.Num.String()
		}
		return f
	case KindBoolean:
		return v.Bool
	case KindNull:
		return nil
	}
	return nil
}
