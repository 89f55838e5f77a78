package indexer

import (
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/usestring/httpinspect/internal/recorder"
)

// FromRecord creates RecordMeta from a recorder record.
func FromRecord(rec *recorder.Record) *RecordMeta {
	meta := &RecordMeta{
		RecordID:     rec.ID,
		TsMs:         rec.Request.CreatedAt.UnixMilli(),
		State:        rec.State(),
		Method:       strings.ToUpper(rec.Request.Method),
		URL:          rec.Request.URL,
		Host:         extractHost(rec.Request.URL),
		Path:         extractPath(rec.Request.URL),
		ReqBodyBytes: len(rec.Request.Body),
		Truncated:    rec.Request.BodyTruncated,
	}

	meta.HeaderNamesLower = extractHeaderNames(rec.Request.Header)

	if rec.Duration != nil {
		ms := rec.Duration.Milliseconds()
		meta.DurationMs = &ms
	}

	if resp := rec.Response; resp != nil {
		meta.Status = resp.StatusCode
		meta.RespBodyBytes = len(resp.Body)
		meta.RespContentType = extractMediaType(resp.Header.Get("Content-Type"))
		meta.Truncated = meta.Truncated || resp.BodyTruncated
		meta.Incomplete = resp.BodyIncomplete
		if e := resp.BodyError; e != nil {
			meta.ErrDescription = e.Description
			meta.ErrDomain = e.Domain
		}
		meta.HeaderNamesLower = appendUnique(meta.HeaderNamesLower, extractHeaderNames(resp.Header)...)
	}

	if e := rec.Err; e != nil {
		meta.ErrDescription = e.Description
		meta.ErrDomain = e.Domain
	}

	return meta
}

// extractHost parses host from URL.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// extractPath parses path from URL.
func extractPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Path
}

// extractHeaderNames gets lowercase header names.
func extractHeaderNames(h http.Header) []string {
	result := make([]string, 0, len(h))
	for name := range h {
		result = append(result, strings.ToLower(name))
	}
	return result
}

func extractMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mt
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
