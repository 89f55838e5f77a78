package tools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/httpinspect/pkg/jsontree"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeParseError   = "PARSE_ERROR"
	ErrCodeQueryError   = "QUERY_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapBodyError converts an error from loading or parsing a body into a
// coded error. Errors that already carry a code keep it.
func WrapBodyError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var parseErr *jsontree.ParseError
	if errors.As(err, &parseErr) {
		coded = &CodedError{
			Code:    ErrCodeParseError,
			Message: fmt.Sprintf("body is not valid JSON (offset %d)", parseErr.Offset),
			Cause:   err,
		}
	} else {
		coded = &CodedError{
			Code:    ErrCodeInvalidInput,
			Message: err.Error(),
			Cause:   err,
		}
	}

	slog.Debug("body error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrQuery creates a query error.
func ErrQuery(err error) error {
	return &CodedError{
		Code:    ErrCodeQueryError,
		Message: "query failed",
		Cause:   err,
	}
}
