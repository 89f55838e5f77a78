// Package types provides shared types for httpinspect.
// These types are used across multiple packages and are designed for external consumption.
package types

import "encoding/json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordSummary is a compact record representation for listings.
type RecordSummary struct {
	RecordID    string      `json:"record_id"`
	TsMs        int64       `json:"ts_ms"`
	State       string      `json:"state"`
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Host        string      `json:"host"`
	Path        string      `json:"path"`
	Status      int         `json:"status,omitempty"`
	DurationMs  *int64      `json:"duration_ms,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorDomain string      `json:"error_domain,omitempty"`
	Sizes       SizeSummary `json:"sizes"`
}

// SizeSummary contains request/response body size information.
type SizeSummary struct {
	ReqBodyBytes    int    `json:"req_body_bytes"`
	RespBodyBytes   int    `json:"resp_body_bytes"`
	RespContentType string `json:"resp_content_type,omitempty"` // e.g., "application/json"
	Truncated       bool   `json:"truncated,omitempty"`
	Incomplete      bool   `json:"incomplete,omitempty"` // response body not read to the end
}

// ResourceRef points to an MCP resource.
type ResourceRef struct {
	URI  string `json:"uri"`
	MIME string `json:"mime"`
	Hint string `json:"hint,omitempty"`
}
