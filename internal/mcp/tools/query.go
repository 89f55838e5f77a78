package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/cache"
	"github.com/usestring/httpinspect/internal/query"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/contenttype"
	"github.com/usestring/httpinspect/pkg/types"
)

// QueryBodyInput is the input for httpinspect_query_body.
type QueryBodyInput struct {
	RecordIDs   []string `json:"record_ids,omitempty" jsonschema:"Query these records (default: the most recent completed records)"`
	Expression  string   `json:"expression" jsonschema:"required,Expression in the chosen mode, e.g. .items[].id for jq or h1.title for css"`
	Mode        string   `json:"mode,omitempty" jsonschema:"Extraction language: jq (JSON and YAML bodies), css or xpath (HTML), xpath (XML), regex (any text), form (urlencoded keys, * for all). Default: jq"`
	Target      string   `json:"target,omitempty" jsonschema:"Which body to query: request, response, or both (default: response)"`
	Deduplicate bool     `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxRecords  int      `json:"max_records,omitempty" jsonschema:"Max records to process when record_ids is omitted (default: 20, max: 100)"`
	MaxResults  int      `json:"max_results,omitempty" jsonschema:"Max values to return (default: 1000)"`
}

const (
	defaultQueryRecords = 20
	maxQueryRecords     = 100
	targetBoth          = "both"
)

// ToolQueryBody runs an extraction expression over captured bodies.
func ToolQueryBody(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBodyInput) (*sdkmcp.CallToolResult, types.QueryResponse, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBodyInput) (*sdkmcp.CallToolResult, types.QueryResponse, error) {
		if input.Expression == "" {
			return nil, types.QueryResponse{}, ErrInvalidInput("expression is required")
		}
		mode, err := query.ParseMode(input.Mode)
		if err != nil {
			return nil, types.QueryResponse{}, ErrInvalidInput(err.Error())
		}
		if err := d.Query.ValidateExpression(mode, input.Expression); err != nil {
			return nil, types.QueryResponse{}, ErrQuery(err)
		}

		targets, err := queryTargets(input.Target)
		if err != nil {
			return nil, types.QueryResponse{}, err
		}

		recordIDs := dedupeIDs(input.RecordIDs)
		if len(recordIDs) == 0 {
			recordIDs, err = recentCompleted(ctx, d, input.MaxRecords)
			if err != nil {
				return nil, types.QueryResponse{}, err
			}
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = d.Config.MaxQueryResults
		}

		qr := types.QueryRequest{
			RecordIDs:   recordIDs,
			Expression:  input.Expression,
			Mode:        string(mode),
			Target:      input.Target,
			Deduplicate: input.Deduplicate,
			MaxResults:  maxResults,
		}
		resp, err := runQuery(d, qr, targets)
		if err != nil {
			return nil, types.QueryResponse{}, err
		}
		return nil, *resp, nil
	}
}

func queryTargets(target string) ([]string, error) {
	if target == targetBoth {
		return []string{recorder.TargetRequest, recorder.TargetResponse}, nil
	}
	t, err := resolveTarget(target)
	if err != nil {
		return nil, ErrInvalidInput("target must be 'request', 'response', or 'both'")
	}
	return []string{t}, nil
}

// recentCompleted returns the ids of the most recent completed records.
func recentCompleted(ctx context.Context, d *Deps, n int) ([]string, error) {
	if n <= 0 {
		n = defaultQueryRecords
	}
	n = min(n, maxQueryRecords)

	resp, err := d.Search.Search(ctx, &types.SearchRequest{
		Filters: &types.SearchFilters{State: string(recorder.StateCompleted)},
		Limit:   n,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.RecordID)
	}
	return ids, nil
}

// runQuery gathers the bodies of the requested records that the mode can
// read and queries them together. Records without a usable body are
// reported as skipped.
func runQuery(d *Deps, qr types.QueryRequest, targets []string) (*types.QueryResponse, error) {
	mode, err := query.ParseMode(qr.Mode)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}
	var inputs []query.Input
	var records []types.QueryRecordResult
	processed := make(map[string]bool)
	skipped := make(map[string]bool)

	for _, id := range qr.RecordIDs {
		rec, err := d.FetchRecord(id)
		if err != nil {
			records = append(records, types.QueryRecordResult{RecordID: id, Skipped: true, SkipReason: "record not found"})
			skipped[id] = true
			continue
		}
		for _, target := range targets {
			result := types.QueryRecordResult{RecordID: id, Target: target}
			body, header, ok := rec.Body(target)
			var cat contenttype.Category
			switch {
			case !ok:
				result.Skipped, result.SkipReason = true, fmt.Sprintf("no %s (state %s)", target, rec.State())
			case len(body) == 0:
				result.Skipped, result.SkipReason = true, "empty body"
			default:
				cat = contenttype.Detect(header, body)
				if !mode.Accepts(cat) {
					result.Skipped, result.SkipReason = true, fmt.Sprintf("%s body cannot be read by %s (try mode %s)", cat, mode, query.DetectMode(cat))
				}
			}
			if result.Skipped {
				skipped[id] = true
			} else {
				processed[id] = true
				inputs = append(inputs, query.Input{Label: cache.Key(id, target), Data: body, Category: cat})
			}
			records = append(records, result)
		}
	}

	resp := &types.QueryResponse{
		Values:  make([]any, 0),
		Records: records,
	}
	resp.Summary.Deduplicated = qr.Deduplicate
	resp.Summary.Mode = string(mode)
	resp.Summary.RecordsProcessed = len(processed)
	for id := range skipped {
		if !processed[id] {
			resp.Summary.RecordsSkipped++
		}
	}

	if len(inputs) == 0 {
		return resp, nil
	}

	result, err := d.Query.Extract(mode, inputs, qr.Expression, qr.Deduplicate, qr.MaxResults)
	if err != nil {
		return nil, ErrQuery(err)
	}

	matched := make(map[string]bool)
	for i := range resp.Records {
		r := &resp.Records[i]
		if r.Skipped {
			continue
		}
		r.ValueCount = result.LabelCounts[cache.Key(r.RecordID, r.Target)]
		if r.ValueCount > 0 {
			matched[r.RecordID] = true
		}
	}

	resp.Values = result.Values
	resp.Errors = result.Errors
	resp.Summary.RecordsMatched = len(matched)
	resp.Summary.TotalValues = len(result.Values)
	resp.Summary.Truncated = result.Truncated
	return resp, nil
}
