package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/pkg/jsontree"
	"github.com/usestring/httpinspect/pkg/types"
)

// BodyTreeInput is the input for httpinspect_body_tree.
type BodyTreeInput struct {
	RecordID string   `json:"record_id" jsonschema:"required,Record ID"`
	Target   string   `json:"target,omitempty" jsonschema:"Which body: request or response (default: response)"`
	Depth    *int     `json:"depth,omitempty" jsonschema:"Expand containers above this level (default: 1, 0 = only the root row)"`
	Expand   []string `json:"expand,omitempty" jsonschema:"Paths to expand in addition to depth, e.g. /items/0 (ancestors expand too)"`
	Offset   int      `json:"offset,omitempty" jsonschema:"First row to return"`
	Limit    int      `json:"limit,omitempty" jsonschema:"Max rows to return (default: 200)"`
}

const defaultTreeRowLimit = 200

// ToolBodyTree projects a captured JSON body into indented tree rows.
func ToolBodyTree(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input BodyTreeInput) (*sdkmcp.CallToolResult, types.TreeResponse, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input BodyTreeInput) (*sdkmcp.CallToolResult, types.TreeResponse, error) {
		if input.RecordID == "" {
			return nil, types.TreeResponse{}, ErrInvalidInput("record_id is required")
		}
		target, err := resolveTarget(input.Target)
		if err != nil {
			return nil, types.TreeResponse{}, err
		}
		if input.Offset < 0 {
			return nil, types.TreeResponse{}, ErrInvalidInput("offset must not be negative")
		}

		roots, err := d.Tree(input.RecordID, target)
		if err != nil {
			return nil, types.TreeResponse{}, err
		}

		depth := d.Config.TreeExpandDepth
		if input.Depth != nil {
			if *input.Depth < 0 {
				return nil, types.TreeResponse{}, ErrInvalidInput("depth must not be negative")
			}
			depth = *input.Depth
		}

		view := jsontree.NewView(roots)
		view.ExpandToDepth(depth)

		output := types.TreeResponse{
			RecordID: input.RecordID,
			Target:   target,
			Offset:   input.Offset,
		}
		for _, path := range input.Expand {
			if !view.Expand(path) {
				output.Unmatched = append(output.Unmatched, path)
			}
		}

		rows := view.Rows()
		output.Total = len(rows)

		limit := input.Limit
		if limit <= 0 {
			limit = defaultTreeRowLimit
		}
		start := min(input.Offset, len(rows))
		end := min(start+limit, len(rows))
		output.Truncated = end < len(rows)

		output.Rows = make([]types.TreeRow, 0, end-start)
		for _, n := range rows[start:end] {
			output.Rows = append(output.Rows, TreeRowOf(view, n))
		}

		return nil, output, nil
	}
}

// TreeRowOf renders a node as it appears in view.
func TreeRowOf(view *jsontree.View, n *jsontree.Node) types.TreeRow {
	return types.TreeRow{
		Path:       n.Path,
		Label:      n.Label(),
		Kind:       n.Kind.String(),
		Level:      n.Level,
		Display:    n.Display(),
		Expandable: n.HasChildren(),
		Expanded:   view.IsExpanded(n),
		ChildCount: len(n.Children),
	}
}
