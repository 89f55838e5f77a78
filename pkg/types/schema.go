package types

// ValidationResult contains the result of validating a single value.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ShapeResult outlines a captured body. JSON bodies get an inferred JSON
// Schema; HTML, XML and form bodies get a structural outline instead.
type ShapeResult struct {
	RecordID string           `json:"record_id"`
	Target   string           `json:"target"`
	Category string           `json:"category"`
	Schema   any              `json:"schema,omitempty"`
	Nodes    int              `json:"nodes"`
	MaxDepth int              `json:"max_depth"`
	HTML     *HTMLOutline     `json:"html,omitempty"`
	XML      []XMLPath        `json:"xml,omitempty"`
	Form     []FormKeyOutline `json:"form,omitempty"`
}

// HTMLOutline summarizes an HTML document.
type HTMLOutline struct {
	Title     string         `json:"title,omitempty"`
	TagCounts map[string]int `json:"tag_counts"`
	IDs       []string       `json:"ids,omitempty"` // tag#id
	Forms     []HTMLForm     `json:"forms,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
}

// HTMLForm is one form element and the names of its fields.
type HTMLForm struct {
	Action string   `json:"action,omitempty"`
	Method string   `json:"method,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// XMLPath is one distinct element path of an XML document, such as
// /feed/entry/id, with the number of elements found at it.
type XMLPath struct {
	Path       string   `json:"path"`
	Count      int      `json:"count"`
	Attributes []string `json:"attributes,omitempty"`
}

// FormKeyOutline is one key of a urlencoded body.
type FormKeyOutline struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Example string `json:"example,omitempty"`
}
