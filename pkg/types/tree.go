package types

// TreeRow is one visible row of a projected body tree.
type TreeRow struct {
	Path       string `json:"path"`
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Level      int    `json:"level"`
	Display    string `json:"display"`
	Expandable bool   `json:"expandable,omitempty"`
	Expanded   bool   `json:"expanded,omitempty"`
	ChildCount int    `json:"child_count,omitempty"`
}

// TreeResponse is a projected tree view of one captured body.
type TreeResponse struct {
	RecordID  string    `json:"record_id"`
	Target    string    `json:"target"`
	Rows      []TreeRow `json:"rows,omitzero"`
	Total     int       `json:"total_rows"`
	Offset    int       `json:"offset,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`       // more rows past Offset+len(Rows)
	Unmatched []string  `json:"unmatched_paths,omitempty"` // expand paths with no container
}
