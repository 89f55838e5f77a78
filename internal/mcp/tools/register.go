package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_list_records",
		Description: "List captured HTTP exchanges, most recent first. Returns summaries with record_id, state (pending, completed, failed), method, url, status, duration and body sizes. Filter by host, method, status, state, header name, URL substring, minimum duration or start time; free-text query matches URL tokens. Pass record_id to the other httpinspect tools.",
	}, ToolListRecords(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_get_record",
		Description: "Get one captured exchange. Returns the summary plus request and response details. Set include_headers=true for headers and include_bodies=true for textual body content (cut to max_bytes); compact=true shortens long JSON arrays and strings first. The record resource holds the uncut bodies.",
	}, ToolGetRecord(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_clear_records",
		Description: "Remove every captured record. Exchanges still in flight are not recorded when they finish.",
	}, ToolClearRecords(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_body_tree",
		Description: "Show a captured JSON body as an indented tree. Each row has path, label (key, [index] or root), kind, level and display text: key or item counts for containers, literal values for leaves. Containers above depth are expanded; pass expand paths (e.g. /items/0) to open deeper nodes. Object keys are sorted.",
	}, ToolBodyTree(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_query_body",
		Description: "Extract values from captured bodies. mode selects the language: jq (default; JSON and YAML bodies), css (HTML), xpath (HTML and XML), regex (any text; first capture group) or form (urlencoded key, * for all pairs). Runs across record_ids, or the most recent completed records when omitted. Returns values, per-record value counts, skipped records with a suggested mode, and per-body errors.",
	}, ToolQueryBody(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_validate_body",
		Description: "Validate captured JSON bodies against a JSON Schema, or against the inferred shape of a reference record. Returns per-record results, a summary and the most common errors.",
	}, ToolValidateBody(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "httpinspect_body_shape",
		Description: "Outline a captured body. JSON bodies get an inferred JSON Schema (draft 2020-12): property types, integer vs number from the literal text, and required keys (keys holding null are optional), plus node count and maximum depth. HTML bodies get title, tag counts, ids and forms; XML bodies get distinct element paths with counts; form bodies get their keys.",
	}, ToolBodyShape(d))
}
