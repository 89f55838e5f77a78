package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/httpinspect/internal/cache"
	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/mcp/tools"
	"github.com/usestring/httpinspect/internal/query"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/internal/search"
)

func newTestDeps(t *testing.T) *tools.Deps {
	t.Helper()
	rec := recorder.New()
	t.Cleanup(rec.Close)
	cfg := config.Default()
	trees, err := cache.NewTreeCache(cfg.TreeCacheMaxItems)
	require.NoError(t, err)
	idx := indexer.New(rec, cfg)
	return &tools.Deps{
		Recorder: rec,
		Indexer:  idx,
		Search:   search.New(idx, cfg),
		Query:    query.NewEngine(),
		Trees:    trees,
		Config:   cfg,
	}
}

func addExchange(deps *tools.Deps, id string, body []byte) {
	deps.Recorder.Create(id, recorder.RequestRecord{
		URL:    "https://api.example.com/items",
		Method: http.MethodGet,
		Header: http.Header{"Accept": {"application/json"}},
	})
	deps.Recorder.Complete(id, recorder.ResponseOutcome(recorder.ResponseRecord{
		StatusCode: 200,
		Status:     "200 OK",
		Proto:      "HTTP/1.1",
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       body,
	}))
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestParseRecordURI(t *testing.T) {
	id, err := parseRecordURI("httpinspect://record/abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	for _, uri := range []string{
		"other://record/abc",
		"httpinspect://flow/abc",
		"httpinspect://record/",
		"httpinspect://record/a/b",
	} {
		_, err := parseRecordURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestHandleResourceRecord(t *testing.T) {
	deps := newTestDeps(t)
	addExchange(deps, "r1", []byte(`{"ok":true}`))
	addExchange(deps, "bin", []byte{0xff, 0x00, 0xfe})

	s, err := NewServer(deps, WithBuiltinTools())
	require.NoError(t, err)

	read := func(uri string) (*RecordDocument, error) {
		res, err := s.handleResourceRecord(context.Background(), &sdkmcp.ReadResourceRequest{
			Params: &sdkmcp.ReadResourceParams{URI: uri},
		})
		if err != nil {
			return nil, err
		}
		require.Len(t, res.Contents, 1)
		assert.Equal(t, tools.MimeJSON, res.Contents[0].MIMEType)
		var doc RecordDocument
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &doc))
		return &doc, nil
	}

	doc, err := read("httpinspect://record/r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", doc.Summary.RecordID)
	require.NotNil(t, doc.Response)
	assert.Equal(t, `{"ok":true}`, doc.Response.Body)
	assert.Equal(t, "utf-8", doc.Response.BodyEncoding)
	assert.Equal(t, []string{"application/json"}, doc.Request.Headers["Accept"])

	doc, err = read("httpinspect://record/bin")
	require.NoError(t, err)
	assert.Equal(t, "base64", doc.Response.BodyEncoding)
	assert.Equal(t, "/wD+", doc.Response.Body)

	_, err = read("httpinspect://record/missing")
	assert.Error(t, err)
}

func TestServer_ToolsOverSession(t *testing.T) {
	deps := newTestDeps(t)
	addExchange(deps, "r1", []byte(`{"items":[{"id":1},{"id":2}]}`))

	s, err := NewServer(deps, WithBuiltinTools())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	listed, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"httpinspect_list_records",
		"httpinspect_get_record",
		"httpinspect_clear_records",
		"httpinspect_body_tree",
		"httpinspect_query_body",
		"httpinspect_validate_body",
		"httpinspect_body_shape",
	}, names)

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "httpinspect_query_body",
		Arguments: map[string]any{"record_ids": []string{"r1"}, "expression": ".items[].id"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"values":[1,2]`)

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "httpinspect_get_record",
		Arguments: map[string]any{"record_id": "missing"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_CustomRegistration(t *testing.T) {
	called := false
	_, err := NewServer(newTestDeps(t), WithCustomRegistration(func(*sdkmcp.Server) { called = true }))
	require.NoError(t, err)
	assert.True(t, called)
}
