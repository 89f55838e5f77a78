package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// CheckOutputSchema. Handlers are wrapped so every call is logged with the
// tool name and its outcome code.
//
// Panics if the zero value of Out fails schema validation.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, logCalls(t.Name, h))
}

func logCalls[In, Out any](name string, h sdkmcp.ToolHandlerFor[In, Out]) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input In) (*sdkmcp.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err != nil {
			code := "ERROR"
			var coded *CodedError
			if errors.As(err, &coded) {
				code = coded.Code
			}
			slog.Debug("tool call failed", slog.String("tool", name), slog.String("code", code))
		}
		return res, out, err
	}
}

// CheckOutputSchema panics if the zero value of T would be rejected by the
// output schema the SDK infers for T. The usual culprit is a slice field
// without omitzero: it encodes as null where the schema says array. Fields
// of type json.RawMessage are rejected too, since the schema describes them
// as byte arrays. The untyped any output is always accepted, and types the
// inferrer cannot handle are left for the SDK to report.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawMessagePaths(rt, "", map[reflect.Type]bool{}); len(paths) > 0 {
		panic(fmt.Sprintf("AddTool %q: %s has json.RawMessage at %s; use any and types.ToAny instead",
			toolName, rt, strings.Join(paths, ", ")))
	}

	inferred, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return
	}
	resolved, err := inferred.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	if err := resolved.Validate(&doc); err != nil {
		panic(fmt.Sprintf("AddTool %q: zero value of %s fails its output schema: %v (encoded as %s); add omitzero to slice fields",
			toolName, rt, err, data))
	}
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// rawMessagePaths lists the dotted field paths under t that hold a
// json.RawMessage. Slice elements appear as [] and map values as [value].
func rawMessagePaths(t reflect.Type, path string, visiting map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == rawMessageType {
		return []string{path}
	}
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	join := func(seg string) string {
		if path == "" {
			return seg
		}
		return path + "." + seg
	}

	switch t.Kind() {
	case reflect.Struct:
		var found []string
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				found = append(found, rawMessagePaths(f.Type, join(f.Name), visiting)...)
			}
		}
		return found
	case reflect.Slice, reflect.Array:
		return rawMessagePaths(t.Elem(), join("[]"), visiting)
	case reflect.Map:
		return rawMessagePaths(t.Elem(), join("[value]"), visiting)
	}
	return nil
}
