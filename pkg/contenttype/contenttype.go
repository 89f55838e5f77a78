// Package contenttype classifies captured bodies so presentation code can
// decide whether a body can be shown as a tree.
package contenttype

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	HTML   Category = "html"
	Form   Category = "form"
	YAML   Category = "yaml"
	Text   Category = "text"
	Binary Category = "binary"
	Empty  Category = "empty"
)

// mediaType strips parameters (charset, boundary) from a Content-Type value.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Classify returns the category declared by a Content-Type header value.
// Unknown and empty values are Binary.
func Classify(contentType string) Category {
	mt := mediaType(contentType)
	switch {
	case mt == "":
		return Binary
	case strings.Contains(mt, "json"):
		return JSON
	case mt == "text/html" || mt == "application/xhtml+xml":
		return HTML
	case strings.Contains(mt, "xml"):
		return XML
	case mt == "application/x-www-form-urlencoded":
		return Form
	case strings.Contains(mt, "yaml"):
		return YAML
	case strings.HasPrefix(mt, "text/"), strings.Contains(mt, "javascript"):
		return Text
	default:
		return Binary
	}
}

// Detect classifies a body using its header first and its bytes second. A
// missing or generic header (octet-stream, text/plain) does not hide a body
// that is plainly JSON.
func Detect(header http.Header, body []byte) Category {
	if len(body) == 0 {
		return Empty
	}
	declared := header.Get("Content-Type")
	cat := Classify(declared)
	if cat == JSON {
		return JSON
	}

	generic := declared == "" || cat == Text || strings.Contains(mediaType(declared), "octet-stream")
	if generic && LooksLikeJSON(body) {
		return JSON
	}
	if declared == "" {
		if utf8.Valid(body) {
			return Text
		}
		return Binary
	}
	return cat
}

// LooksLikeJSON reports whether body starts like a JSON object or array.
// It does not validate the document.
func LooksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// IsJSON returns true if the content type indicates JSON (case-insensitive).
func IsJSON(contentType string) bool {
	return Classify(contentType) == JSON
}
