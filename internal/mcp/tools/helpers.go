// Package tools contains MCP tool implementations for httpinspect.
package tools

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// RecordURIPrefix is the scheme and type of record resources.
const RecordURIPrefix = "httpinspect://record/"

// RecordResource points at the full record resource.
func RecordResource(recordID string) *types.ResourceRef {
	return &types.ResourceRef{
		URI:  RecordURIPrefix + recordID,
		MIME: MimeJSON,
		Hint: "Full record with uncut bodies",
	}
}

// resolveTarget applies the default body target.
func resolveTarget(target string) (string, error) {
	if target == "" {
		return recorder.TargetResponse, nil
	}
	target = strings.ToLower(target)
	if err := checkTarget(target); err != nil {
		return "", err
	}
	return target, nil
}

// flattenHeaders joins repeated header values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// clipText returns body as text cut to maxBytes without splitting a rune.
func clipText(body []byte, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(body) <= maxBytes {
		return strings.ToValidUTF8(string(body), "�"), false
	}
	cut := body[:maxBytes]
	for len(cut) > 0 && !utf8.Valid(cut) {
		r, size := utf8.DecodeLastRune(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return strings.ToValidUTF8(string(cut), "�"), true
}

// dedupeIDs drops empty and repeated ids, keeping first occurrences.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
