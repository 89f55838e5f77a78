package search

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	rec    *recorder.Recorder
	clk    *recorder.FakeClock
	engine *SearchEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := recorder.NewFakeClock(t0)
	rec := recorder.New(recorder.WithClock(clk))
	t.Cleanup(rec.Close)
	cfg := config.Default()
	cfg.DefaultListLimit = 2
	return &fixture{rec: rec, clk: clk, engine: New(indexer.New(rec, cfg), cfg)}
}

func (f *fixture) exchange(id, method, url string, status int, took time.Duration) {
	f.rec.Create(id, recorder.RequestRecord{URL: url, Method: method, Header: http.Header{}})
	f.clk.Advance(took)
	if status == 0 {
		return
	}
	f.rec.Complete(id, recorder.ResponseOutcome(recorder.ResponseRecord{
		StatusCode: status,
		Header:     http.Header{"X-Request-Id": {id}},
	}))
}

func (f *fixture) search(t *testing.T, req *types.SearchRequest) *types.SearchResponse {
	t.Helper()
	resp, err := f.engine.Search(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func ids(resp *types.SearchResponse) []string {
	out := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.RecordID)
	}
	return out
}

func seed(f *fixture) {
	f.exchange("r1", "GET", "https://api.example.com/v1/users?page=1", 200, 30*time.Millisecond)
	f.exchange("r2", "POST", "https://api.example.com/v1/orders", 201, 400*time.Millisecond)
	f.exchange("r3", "GET", "https://cdn.other.net/assets/app.js", 404, 5*time.Millisecond)
	f.exchange("r4", "GET", "https://www.example.com/home", 0, 0)
}

func TestSearch_MostRecentFirstWithPagination(t *testing.T) {
	f := newFixture(t)
	seed(f)

	resp := f.search(t, &types.SearchRequest{})
	assert.Equal(t, []string{"r4", "r3"}, ids(resp))
	assert.Equal(t, 4, resp.TotalHint)
	assert.NotZero(t, resp.SyncedAtMs)

	resp = f.search(t, &types.SearchRequest{Offset: 2, Limit: 10})
	assert.Equal(t, []string{"r2", "r1"}, ids(resp))

	resp = f.search(t, &types.SearchRequest{Offset: 10})
	assert.Empty(t, resp.Results)
}

func TestSearch_StructuredFilters(t *testing.T) {
	f := newFixture(t)
	seed(f)

	tests := []struct {
		name    string
		filters *types.SearchFilters
		want    []string
	}{
		{"host wildcard", &types.SearchFilters{Host: "*.example.com"}, []string{"r4", "r2", "r1"}},
		{"exact host", &types.SearchFilters{Host: "CDN.other.net"}, []string{"r3"}},
		{"method", &types.SearchFilters{Method: "post"}, []string{"r2"}},
		{"status", &types.SearchFilters{Status: 404}, []string{"r3"}},
		{"pending", &types.SearchFilters{State: "pending"}, []string{"r4"}},
		{"completed and host", &types.SearchFilters{State: "completed", Host: "api.example.com"}, []string{"r2", "r1"}},
		{"header name", &types.SearchFilters{HeaderName: "x-request-id"}, []string{"r3", "r2", "r1"}},
		{"url contains", &types.SearchFilters{URLContains: "ORDERS"}, []string{"r2"}},
		{"slow", &types.SearchFilters{MinDurationMs: 100}, []string{"r2"}},
		{"no match", &types.SearchFilters{Host: "nowhere.test"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.search(t, &types.SearchRequest{Filters: tt.filters, Limit: 10})
			assert.Equal(t, tt.want, ids(resp))
		})
	}
}

func TestSearch_FreeTextQuery(t *testing.T) {
	f := newFixture(t)
	seed(f)

	assert.Equal(t, []string{"r2", "r1"}, ids(f.search(t, &types.SearchRequest{Query: "v1 example", Limit: 10})))
	assert.Equal(t, []string{"r1"}, ids(f.search(t, &types.SearchRequest{Query: "users page", Limit: 10})))
	assert.Empty(t, ids(f.search(t, &types.SearchRequest{Query: "missing", Limit: 10})))
}

func TestSearch_SeesNewRecordsWithoutFollower(t *testing.T) {
	f := newFixture(t)
	f.exchange("r1", "GET", "https://a.test/", 200, time.Millisecond)
	assert.Len(t, f.search(t, &types.SearchRequest{}).Results, 1)

	f.exchange("r2", "GET", "https://b.test/", 200, time.Millisecond)
	assert.Equal(t, []string{"r2", "r1"}, ids(f.search(t, &types.SearchRequest{})))

	f.rec.Clear()
	assert.Empty(t, f.search(t, &types.SearchRequest{}).Results)
}

func TestSearch_InvalidState(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Search(context.Background(), &types.SearchRequest{Filters: &types.SearchFilters{State: "done"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state")
}
