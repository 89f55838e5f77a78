package tools

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/pkg/contenttype"
	"github.com/usestring/httpinspect/pkg/jsontree"
	"github.com/usestring/httpinspect/pkg/types"
)

// ListRecordsInput is the input for httpinspect_list_records.
type ListRecordsInput struct {
	Query   string              `json:"query,omitempty" jsonschema:"Free text over URL tokens (host labels, path segments, query keys). Tokens are ANDed."`
	Filters *ListRecordsFilters `json:"filters,omitempty" jsonschema:"Structured filters"`
	Limit   int                 `json:"limit,omitempty" jsonschema:"Max results (default: 50, max: 500)"`
	Offset  int                 `json:"offset,omitempty" jsonschema:"Pagination offset"`
}

// ListRecordsFilters contains filter criteria for listing.
type ListRecordsFilters struct {
	Host          string `json:"host,omitempty" jsonschema:"Filter by host. Prefix with '*.' to include subdomains."`
	Method        string `json:"method,omitempty" jsonschema:"HTTP method"`
	Status        int    `json:"status,omitempty" jsonschema:"HTTP status code"`
	State         string `json:"state,omitempty" jsonschema:"Record state: pending, completed or failed"`
	HeaderName    string `json:"header_name,omitempty" jsonschema:"Filter by request or response header presence (name only)"`
	URLContains   string `json:"url_contains,omitempty" jsonschema:"URL substring match"`
	MinDurationMs int64  `json:"min_duration_ms,omitempty" jsonschema:"Only exchanges that took at least this long"`
	SinceMs       int64  `json:"since_ms,omitempty" jsonschema:"Unix timestamp (ms) lower bound"`
}

// ListRecordsOutput is the output for httpinspect_list_records.
type ListRecordsOutput struct {
	Results    []*types.RecordSummary `json:"results,omitzero"`
	TotalHint  int                    `json:"total_hint"`
	SyncedAtMs int64                  `json:"synced_at_ms"`
	Hint       string                 `json:"hint,omitempty"`
}

// ToolListRecords lists captured records, most recent first.
func ToolListRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListRecordsInput) (*sdkmcp.CallToolResult, ListRecordsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListRecordsInput) (*sdkmcp.CallToolResult, ListRecordsOutput, error) {
		if input.Offset < 0 {
			return nil, ListRecordsOutput{}, ErrInvalidInput("offset must not be negative")
		}

		searchReq := &types.SearchRequest{
			Query:  input.Query,
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if f := input.Filters; f != nil {
			searchReq.Filters = &types.SearchFilters{
				Host:          f.Host,
				Method:        f.Method,
				Status:        f.Status,
				State:         f.State,
				HeaderName:    f.HeaderName,
				URLContains:   f.URLContains,
				MinDurationMs: f.MinDurationMs,
				SinceMs:       f.SinceMs,
			}
		}

		resp, err := d.Search.Search(ctx, searchReq)
		if err != nil {
			return nil, ListRecordsOutput{}, ErrInvalidInput(err.Error())
		}

		output := ListRecordsOutput{
			Results:    resp.Results,
			TotalHint:  resp.TotalHint,
			SyncedAtMs: resp.SyncedAtMs,
		}
		switch {
		case resp.TotalHint == 0 && d.Recorder.Len() == 0:
			output.Hint = "Nothing captured yet. Records appear once the host application sends requests."
		case resp.TotalHint == 0:
			output.Hint = "No records match. Loosen the filters or drop the query."
		case input.Offset+len(resp.Results) < resp.TotalHint:
			output.Hint = fmt.Sprintf("More results available: use offset=%d.", input.Offset+len(resp.Results))
		}
		return nil, output, nil
	}
}

// GetRecordInput is the input for httpinspect_get_record.
type GetRecordInput struct {
	RecordID       string `json:"record_id" jsonschema:"required,Record ID to retrieve"`
	IncludeHeaders bool   `json:"include_headers,omitempty" jsonschema:"Include request/response headers (default: false)"`
	IncludeBodies  bool   `json:"include_bodies,omitempty" jsonschema:"Include body text for textual bodies (default: false)"`
	MaxBytes       int    `json:"max_bytes,omitempty" jsonschema:"Max body bytes to return per body (default: 4096)"`
	Compact        bool   `json:"compact,omitempty" jsonschema:"Shorten JSON bodies: keep 3 items per array and 500 bytes per string (default: false)"`
}

// GetRecordOutput is the output for httpinspect_get_record.
type GetRecordOutput struct {
	Summary  *types.RecordSummary `json:"summary"`
	Request  *MessageView         `json:"request"`
	Response *MessageView         `json:"response,omitempty"`
	Resource *types.ResourceRef   `json:"resource,omitempty"`
	Hint     string               `json:"hint,omitempty"`
}

// MessageView is one side of an exchange.
type MessageView struct {
	Status  string            `json:"status,omitempty"`
	Proto   string            `json:"proto,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    *BodyView         `json:"body,omitempty"`
}

// BodyView describes a captured body.
type BodyView struct {
	Bytes      int    `json:"bytes"`
	Category   string `json:"category"`
	Text       string `json:"text,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`  // capture stopped at the body limit
	Incomplete bool   `json:"incomplete,omitempty"` // body closed early or a read failed
	Clipped    bool   `json:"clipped,omitempty"`    // text cut to max_bytes
	Compacted  bool   `json:"compacted,omitempty"`  // arrays and strings shortened
}

const defaultGetRecordMaxBytes = 4096

// ToolGetRecord returns one record with optional headers and body text.
func ToolGetRecord(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRecordInput) (*sdkmcp.CallToolResult, GetRecordOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetRecordInput) (*sdkmcp.CallToolResult, GetRecordOutput, error) {
		if input.RecordID == "" {
			return nil, GetRecordOutput{}, ErrInvalidInput("record_id is required")
		}
		rec, err := d.FetchRecord(input.RecordID)
		if err != nil {
			return nil, GetRecordOutput{}, err
		}

		maxBytes := input.MaxBytes
		if maxBytes <= 0 {
			maxBytes = defaultGetRecordMaxBytes
		}

		textOpts := bodyTextOptions{include: input.IncludeBodies, compact: input.Compact, maxBytes: maxBytes}
		output := GetRecordOutput{
			Summary:  indexer.FromRecord(&rec).ToSummary(),
			Resource: RecordResource(rec.ID),
		}

		output.Request = &MessageView{
			Body: bodyView(rec.Request.Body, rec.Request.BodyTruncated, false, contenttype.Detect(rec.Request.Header, rec.Request.Body), textOpts),
		}
		if input.IncludeHeaders {
			output.Request.Headers = flattenHeaders(rec.Request.Header)
		}

		if resp := rec.Response; resp != nil {
			output.Response = &MessageView{
				Status: resp.Status,
				Proto:  resp.Proto,
				Body:   bodyView(resp.Body, resp.BodyTruncated, resp.BodyIncomplete, contenttype.Detect(resp.Header, resp.Body), textOpts),
			}
			if input.IncludeHeaders {
				output.Response.Headers = flattenHeaders(resp.Header)
			}
		}

		switch {
		case output.Response != nil && output.Response.Body != nil && output.Response.Body.Category == string(contenttype.JSON):
			output.Hint = "Use httpinspect_body_tree to browse the JSON body or httpinspect_query_body to extract values."
		case rec.Response != nil && rec.Response.BodyError != nil:
			output.Hint = "The response arrived but reading its body failed; see summary.error."
		case rec.Err != nil:
			output.Hint = "The exchange failed before a response arrived; see summary.error."
		case output.Response == nil:
			output.Hint = fmt.Sprintf("In flight for %s. Fetch again once it completes.", d.Recorder.Elapsed(&rec).Round(time.Millisecond))
		}
		return nil, output, nil
	}
}

type bodyTextOptions struct {
	include  bool
	compact  bool
	maxBytes int
}

func bodyView(body []byte, truncated, incomplete bool, cat contenttype.Category, opts bodyTextOptions) *BodyView {
	if len(body) == 0 && !truncated && !incomplete {
		return nil
	}
	view := &BodyView{
		Bytes:      len(body),
		Category:   string(cat),
		Truncated:  truncated,
		Incomplete: incomplete,
	}
	if !opts.include || cat == contenttype.Binary {
		return view
	}
	text := body
	if opts.compact && cat == contenttype.JSON {
		// Bodies that do not decode are shown as captured.
		if v, err := jsontree.Decode(body); err == nil {
			if out, err := jsontree.Compact(v, jsontree.DefaultCompactOptions()).MarshalJSON(); err == nil {
				text, view.Compacted = out, true
			}
		}
	}
	view.Text, view.Clipped = clipText(text, opts.maxBytes)
	return view
}

// ClearRecordsInput is the input for httpinspect_clear_records.
type ClearRecordsInput struct{}

// ClearRecordsOutput is the output for httpinspect_clear_records.
type ClearRecordsOutput struct {
	Cleared int `json:"cleared"`
}

// ToolClearRecords removes every captured record.
func ToolClearRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClearRecordsInput) (*sdkmcp.CallToolResult, ClearRecordsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClearRecordsInput) (*sdkmcp.CallToolResult, ClearRecordsOutput, error) {
		return nil, ClearRecordsOutput{Cleared: d.Clear()}, nil
	}
}
