package contenttype

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Category
	}{
		{"application/json", "application/json", JSON},
		{"vendor json", "application/vnd.api+json", JSON},
		{"json with charset", "application/json; charset=utf-8", JSON},
		{"problem json", "application/problem+json", JSON},
		{"text/html", "text/html; charset=utf-8", HTML},
		{"xhtml", "application/xhtml+xml", HTML},
		{"xml", "application/xml", XML},
		{"form", "application/x-www-form-urlencoded", Form},
		{"plain", "text/plain", Text},
		{"javascript", "application/javascript", Text},
		{"yaml", "application/x-yaml", YAML},
		{"text yaml", "text/yaml", YAML},
		{"png", "image/png", Binary},
		{"octet-stream", "application/octet-stream", Binary},
		{"empty", "", Binary},
		{"malformed", "Application/JSON;;", JSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestDetect(t *testing.T) {
	h := func(ct string) http.Header {
		if ct == "" {
			return http.Header{}
		}
		return http.Header{"Content-Type": {ct}}
	}

	tests := []struct {
		name   string
		header http.Header
		body   string
		want   Category
	}{
		{"empty body", h("application/json"), "", Empty},
		{"declared json", h("application/json"), `not really`, JSON},
		{"undeclared object", h(""), ` {"a":1}`, JSON},
		{"plain text array", h("text/plain"), `[1,2]`, JSON},
		{"octet stream object", h("application/octet-stream"), `{"a":1}`, JSON},
		{"html stays html", h("text/html"), `{"a":1}`, HTML},
		{"undeclared text", h(""), `hello`, Text},
		{"undeclared binary", h(""), "\xff\xfe\x00", Binary},
		{"bom prefixed", h(""), "\xef\xbb\xbf{}", JSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.header, []byte(tt.body)))
		})
	}
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("Application/Json"))
	assert.False(t, IsJSON("text/html"))
}
