// Package schema validates captured bodies against JSON Schema documents.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/httpinspect/pkg/jsontree"
	"github.com/usestring/httpinspect/pkg/types"
)

const resourceURL = "inline://schema.json"

// Validator validates JSON data against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a JSON Schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing JSON Schema: %w", err)
	}
	return compile(doc)
}

// NewValidatorFromValue compiles a schema that has already been decoded into
// maps and slices.
func NewValidatorFromValue(doc any) (*Validator, error) {
	return compile(doc)
}

func compile(doc any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	// doc must be a decoded JSON value, not an io.Reader
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate decodes data with the tree decoder and validates the result.
// Undecodable bodies are reported as a single validation error.
func (v *Validator) Validate(data []byte) *types.ValidationResult {
	value, err := jsontree.Decode(data)
	if err != nil {
		return &types.ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())},
		}
	}
	return v.ValidateValue(value.Interface())
}

// ValidateValue validates an already-parsed value against the schema.
func (v *Validator) ValidateValue(value any) *types.ValidationResult {
	err := v.schema.Validate(value)
	if err == nil {
		return &types.ValidationResult{Valid: true}
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &types.ValidationResult{Errors: []string{err.Error()}}
	}
	return &types.ValidationResult{Errors: leafMessages(verr)}
}

var printer = message.NewPrinter(language.English)

// leafMessages flattens a ValidationError tree to its leaves, one message per
// distinct (instance path, message) pair, ordered by path. Messages are
// prefixed with their JSON pointer unless they apply to the document root.
func leafMessages(root *jsonschema.ValidationError) []string {
	type leaf struct{ path, msg string }
	var leaves []leaf
	seen := make(map[leaf]bool)

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		for _, c := range e.Causes {
			walk(c)
		}
		if len(e.Causes) > 0 || e.ErrorKind == nil {
			return
		}
		msg := e.ErrorKind.LocalizedString(printer)
		// $ref wrappers repeat their causes
		if strings.HasPrefix(msg, "$ref ") || strings.HasPrefix(msg, "doesn't validate with") {
			return
		}
		l := leaf{msg: msg}
		if len(e.InstanceLocation) > 0 {
			l.path = "/" + strings.Join(e.InstanceLocation, "/")
		}
		if !seen[l] {
			seen[l] = true
			leaves = append(leaves, l)
		}
	}
	walk(root)

	slices.SortStableFunc(leaves, func(a, b leaf) int { return strings.Compare(a.path, b.path) })
	out := make([]string, len(leaves))
	for i, l := range leaves {
		if l.path == "" {
			out[i] = l.msg
		} else {
			out[i] = l.path + ": " + l.msg
		}
	}
	return out
}
