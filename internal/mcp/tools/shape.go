package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/shape"
	"github.com/usestring/httpinspect/pkg/contenttype"
	"github.com/usestring/httpinspect/pkg/types"
)

// BodyShapeInput is the input for httpinspect_body_shape.
type BodyShapeInput struct {
	RecordID string `json:"record_id" jsonschema:"required,Record ID"`
	Target   string `json:"target,omitempty" jsonschema:"Which body: request or response (default: response)"`
}

// ToolBodyShape outlines one captured body. JSON bodies get an inferred JSON
// Schema; HTML, XML and form bodies get a structural outline.
func ToolBodyShape(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input BodyShapeInput) (*sdkmcp.CallToolResult, types.ShapeResult, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input BodyShapeInput) (*sdkmcp.CallToolResult, types.ShapeResult, error) {
		if input.RecordID == "" {
			return nil, types.ShapeResult{}, ErrInvalidInput("record_id is required")
		}
		target, err := resolveTarget(input.Target)
		if err != nil {
			return nil, types.ShapeResult{}, err
		}
		rec, err := d.FetchRecord(input.RecordID)
		if err != nil {
			return nil, types.ShapeResult{}, err
		}
		body, err := bodyOf(&rec, target)
		if err != nil {
			return nil, types.ShapeResult{}, err
		}
		_, header, _ := rec.Body(target)
		cat := contenttype.Detect(header, body)

		result := types.ShapeResult{RecordID: rec.ID, Target: target, Category: string(cat)}
		switch cat {
		case contenttype.JSON:
			err = jsonShape(d, &result)
		case contenttype.HTML:
			result.HTML, err = shape.HTML(body)
		case contenttype.XML:
			result.XML, err = shape.XML(body)
		case contenttype.Form:
			result.Form, err = shape.Form(body)
		default:
			return nil, types.ShapeResult{}, &CodedError{
				Code:    ErrCodeInvalidInput,
				Message: fmt.Sprintf("cannot outline a %s body; try httpinspect_get_record with include_bodies", cat),
			}
		}
		if err != nil {
			var coded *CodedError
			if !errors.As(err, &coded) {
				coded = &CodedError{Code: ErrCodeParseError, Message: fmt.Sprintf("%s body could not be parsed", cat), Cause: err}
			}
			return nil, types.ShapeResult{}, coded
		}
		return nil, result, nil
	}
}

func jsonShape(d *Deps, result *types.ShapeResult) error {
	roots, err := d.Tree(result.RecordID, result.Target)
	if err != nil {
		return err
	}
	outline := shape.Infer(roots)
	schemaAny, err := types.ToAny(outline.Schema)
	if err != nil {
		return err
	}
	result.Schema = schemaAny
	result.Nodes = outline.Nodes
	result.MaxDepth = outline.MaxDepth
	return nil
}
