package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/internal/schema"
	"github.com/usestring/httpinspect/internal/shape"
	"github.com/usestring/httpinspect/pkg/contenttype"
)

// ValidateBodyInput is the input for httpinspect_validate_body.
type ValidateBodyInput struct {
	RecordIDs       []string `json:"record_ids,omitempty" jsonschema:"Validate these records (default: the most recent completed records)"`
	Schema          string   `json:"schema,omitempty" jsonschema:"JSON Schema document"`
	ReferenceRecord string   `json:"reference_record_id,omitempty" jsonschema:"Use the inferred shape of this record's body as the schema instead"`
	Target          string   `json:"target,omitempty" jsonschema:"Which body to validate: request, response, or both (default: response)"`
	MaxRecords      int      `json:"max_records,omitempty" jsonschema:"Max records to validate when record_ids is omitted (default: 20, max: 100)"`
}

// ValidateBodyOutput is the output for httpinspect_validate_body.
type ValidateBodyOutput struct {
	Summary      ValidationSummary  `json:"summary"`
	Results      []RecordValidation `json:"results,omitzero"`
	CommonErrors []CommonError      `json:"common_errors,omitempty"`
}

// CommonError represents a frequently occurring validation error.
type CommonError struct {
	Error     string `json:"error"`
	Frequency int    `json:"frequency"`
}

// ValidationSummary summarizes the validation results.
type ValidationSummary struct {
	TotalRecords  int  `json:"total_records"`
	MatchingCount int  `json:"matching_count"`
	FailedCount   int  `json:"failed_count"`
	SkippedCount  int  `json:"skipped_count"`
	AllMatch      bool `json:"all_match"`
}

// RecordValidation contains the validation result for one body.
type RecordValidation struct {
	RecordID   string   `json:"record_id"`
	Target     string   `json:"target"`
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors,omitempty"`
	Skipped    bool     `json:"skipped,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

// ToolValidateBody validates captured JSON bodies against a JSON Schema.
func ToolValidateBody(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBodyInput) (*sdkmcp.CallToolResult, ValidateBodyOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBodyInput) (*sdkmcp.CallToolResult, ValidateBodyOutput, error) {
		if (input.Schema == "") == (input.ReferenceRecord == "") {
			return nil, ValidateBodyOutput{}, ErrInvalidInput("exactly one of schema or reference_record_id is required")
		}

		targets, err := queryTargets(input.Target)
		if err != nil {
			return nil, ValidateBodyOutput{}, err
		}

		validator, err := buildValidator(d, input, targets[len(targets)-1])
		if err != nil {
			return nil, ValidateBodyOutput{}, err
		}

		recordIDs := dedupeIDs(input.RecordIDs)
		if len(recordIDs) == 0 {
			recordIDs, err = recentCompleted(ctx, d, input.MaxRecords)
			if err != nil {
				return nil, ValidateBodyOutput{}, err
			}
		}

		output := ValidateBodyOutput{
			Results: make([]RecordValidation, 0, len(recordIDs)*len(targets)),
			Summary: ValidationSummary{TotalRecords: len(recordIDs)},
		}

		for _, id := range recordIDs {
			rec, err := d.FetchRecord(id)
			for _, target := range targets {
				var result RecordValidation
				if err != nil {
					result = RecordValidation{Target: target, Skipped: true, SkipReason: "record not found"}
				} else {
					result = validateRecordBody(validator, &rec, target)
				}
				result.RecordID = id
				output.Results = append(output.Results, result)

				switch {
				case result.Skipped:
					output.Summary.SkippedCount++
				case result.Valid:
					output.Summary.MatchingCount++
				default:
					output.Summary.FailedCount++
				}
			}
		}

		validated := output.Summary.MatchingCount + output.Summary.FailedCount
		output.Summary.AllMatch = validated > 0 && output.Summary.FailedCount == 0
		output.CommonErrors = commonErrors(output.Results)

		return nil, output, nil
	}
}

func buildValidator(d *Deps, input ValidateBodyInput, target string) (*schema.Validator, error) {
	if input.Schema != "" {
		v, err := schema.NewValidator(input.Schema)
		if err != nil {
			return nil, ErrInvalidInput("invalid schema: " + err.Error())
		}
		return v, nil
	}

	roots, err := d.Tree(input.ReferenceRecord, target)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(shape.Infer(roots).Schema)
	if err != nil {
		return nil, fmt.Errorf("encoding inferred schema: %w", err)
	}
	v, err := schema.NewValidator(string(doc))
	if err != nil {
		return nil, fmt.Errorf("compiling inferred schema: %w", err)
	}
	return v, nil
}

func validateRecordBody(validator *schema.Validator, rec *recorder.Record, target string) RecordValidation {
	result := RecordValidation{Target: target}

	body, header, ok := rec.Body(target)
	switch {
	case !ok:
		result.Skipped, result.SkipReason = true, fmt.Sprintf("no %s (state %s)", target, rec.State())
		return result
	case len(body) == 0:
		result.Skipped, result.SkipReason = true, "no body"
		return result
	}
	if cat := contenttype.Detect(header, body); cat != contenttype.JSON {
		result.Skipped, result.SkipReason = true, fmt.Sprintf("body is %s, not json", cat)
		return result
	}

	validation := validator.Validate(body)
	result.Valid = validation.Valid
	result.Errors = validation.Errors
	return result
}

func commonErrors(results []RecordValidation) []CommonError {
	counts := make(map[string]int)
	for _, r := range results {
		for _, e := range r.Errors {
			counts[e]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	out := make([]CommonError, 0, len(counts))
	for _, e := range sortedKeys(counts) {
		out = append(out, CommonError{Error: e, Frequency: counts[e]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	return out
}
