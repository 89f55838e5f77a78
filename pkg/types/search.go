package types

// SearchRequest contains parameters for a record search.
type SearchRequest struct {
	Query   string         // Free text query over URL tokens
	Filters *SearchFilters // Optional structured filters
	Limit   int            // Default from config, capped
	Offset  int            // Pagination offset
}

// SearchFilters contains structured filter criteria.
type SearchFilters struct {
	Host          string // Exact host, or "*.example.com" for a domain and its subdomains
	Method        string
	Status        int
	State         string // pending, completed or failed
	HeaderName    string // Request or response header present
	URLContains   string
	MinDurationMs int64
	SinceMs       int64 // Unix timestamp in ms
}

// SearchResponse contains the search results, most recent first.
type SearchResponse struct {
	Results    []*RecordSummary `json:"results,omitzero"`
	TotalHint  int              `json:"total_hint"`
	SyncedAtMs int64            `json:"synced_at_ms"`
}
