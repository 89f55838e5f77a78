package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"},
		"tags": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["name"]
}`

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator(userSchema)
	require.NoError(t, err)

	result := v.Validate([]byte(`{"name": "Alice", "age": 30, "tags": ["a"]}`))
	assert.True(t, result.Valid, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidator_MissingRequired(t *testing.T) {
	v, err := NewValidator(userSchema)
	require.NoError(t, err)

	result := v.Validate([]byte(`{"age": 30}`))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "name")
}

func TestValidator_ErrorsCarryInstancePath(t *testing.T) {
	v, err := NewValidator(userSchema)
	require.NoError(t, err)

	result := v.Validate([]byte(`{"name": 1, "tags": ["ok", 2]}`))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "/name: ")
	assert.Contains(t, result.Errors[1], "/tags/1: ")
}

func TestValidator_BooleanIsNotInteger(t *testing.T) {
	v, err := NewValidator(`{"type": "integer"}`)
	require.NoError(t, err)

	assert.True(t, v.Validate([]byte(`1`)).Valid)
	assert.False(t, v.Validate([]byte(`true`)).Valid)
}

func TestValidator_InvalidBody(t *testing.T) {
	v, err := NewValidator(userSchema)
	require.NoError(t, err)

	result := v.Validate([]byte(`{"name":`))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid JSON")
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": `)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON Schema")

	_, err = NewValidator(`{"type": "nope"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling schema")
}

func TestNewValidatorFromValue(t *testing.T) {
	v, err := NewValidatorFromValue(map[string]any{"type": "array"})
	require.NoError(t, err)
	assert.True(t, v.ValidateValue([]any{1.0}).Valid)
	assert.False(t, v.ValidateValue(map[string]any{}).Valid)
}
