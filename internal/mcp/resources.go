package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/mcp/tools"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/types"
)

// Resource URI scheme: httpinspect://
// Supported URIs:
//   httpinspect://record/{id}

// RecordDocument is the full content of a record resource.
type RecordDocument struct {
	Summary  *types.RecordSummary `json:"summary"`
	Request  MessageDocument      `json:"request"`
	Response *MessageDocument     `json:"response,omitempty"`
}

// MessageDocument is one side of an exchange with its uncut captured body.
type MessageDocument struct {
	Status         string              `json:"status,omitempty"`
	Proto          string              `json:"proto,omitempty"`
	Headers        map[string][]string `json:"headers,omitempty"`
	Body           string              `json:"body,omitempty"`
	BodyEncoding   string              `json:"body_encoding,omitempty"` // utf-8 or base64
	BodyTruncated  bool                `json:"body_truncated,omitempty"`
	BodyIncomplete bool                `json:"body_incomplete,omitempty"`
}

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: tools.RecordURIPrefix + "{id}",
		Name:        "HTTP Record",
		Description: "Full captured exchange with all headers and uncut bodies. High context cost - httpinspect_get_record already returns the summary and clipped bodies.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceRecord)
}

func (s *Server) handleResourceRecord(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	id, err := parseRecordURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	rec, ok := s.deps.Recorder.Get(id)
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return toResourceResult(req.Params.URI, recordDocument(&rec))
}

func recordDocument(rec *recorder.Record) *RecordDocument {
	doc := &RecordDocument{
		Summary: indexer.FromRecord(rec).ToSummary(),
		Request: messageDocument(rec.Request.Header, rec.Request.Body, rec.Request.BodyTruncated),
	}
	if resp := rec.Response; resp != nil {
		m := messageDocument(resp.Header, resp.Body, resp.BodyTruncated)
		m.Status = resp.Status
		m.Proto = resp.Proto
		m.BodyIncomplete = resp.BodyIncomplete
		doc.Response = &m
	}
	return doc
}

func messageDocument(header http.Header, body []byte, truncated bool) MessageDocument {
	m := MessageDocument{
		Headers:       header,
		BodyTruncated: truncated,
	}
	switch {
	case len(body) == 0:
	case utf8.Valid(body):
		m.Body = string(body)
		m.BodyEncoding = "utf-8"
	default:
		m.Body = base64.StdEncoding.EncodeToString(body)
		m.BodyEncoding = "base64"
	}
	return m
}

// parseRecordURI extracts the record id from an httpinspect://record/ URI.
func parseRecordURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "httpinspect://") {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected httpinspect://")
	}

	id, ok := strings.CutPrefix(uri, tools.RecordURIPrefix)
	if !ok {
		kind, _, _ := strings.Cut(strings.TrimPrefix(uri, "httpinspect://"), "/")
		return "", tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", kind))
	}
	if id == "" || strings.Contains(id, "/") {
		return "", tools.ErrInvalidInput("record URI requires exactly one record ID")
	}
	return id, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
