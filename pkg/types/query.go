package types

// QueryRequest contains parameters for a body query operation.
type QueryRequest struct {
	RecordIDs   []string // Records to query; empty means every completed record
	Expression  string   // Expression in Mode's language
	Mode        string   // "jq", "css", "xpath", "regex" or "form"
	Target      string   // "request", "response", or "both"
	Deduplicate bool
	MaxResults  int
}

// QuerySummary contains summary statistics for a query.
type QuerySummary struct {
	RecordsProcessed int    `json:"records_processed"`
	RecordsMatched   int    `json:"records_matched"`
	RecordsSkipped   int    `json:"records_skipped"`
	TotalValues      int    `json:"total_values"`
	Deduplicated     bool   `json:"deduplicated"`
	Mode             string `json:"mode"`
	Truncated        bool   `json:"truncated,omitempty"`
}

// QueryRecordResult contains per-record query results.
type QueryRecordResult struct {
	RecordID   string `json:"record_id"`
	Target     string `json:"target"`
	ValueCount int    `json:"value_count"`
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// QueryResponse contains the full response from a body query operation.
type QueryResponse struct {
	Summary QuerySummary        `json:"summary"`
	Values  []any               `json:"values,omitzero"`
	Records []QueryRecordResult `json:"records,omitempty"`
	Errors  []string            `json:"errors,omitempty"`
}
