// Package search provides filtered lookup over indexed records.
package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/types"
)

// SearchEngine provides search capabilities over the indexer.
type SearchEngine struct {
	indexer      *indexer.Indexer
	defaultLimit int
	maxLimit     int
}

// New creates a new SearchEngine.
func New(idx *indexer.Indexer, cfg *config.Config) *SearchEngine {
	limit := cfg.DefaultListLimit
	if limit <= 0 {
		limit = config.DefaultListLimitValue
	}
	return &SearchEngine{indexer: idx, defaultLimit: limit, maxLimit: config.MaxListLimitValue}
}

// Search refreshes the index and returns matching records, most recent first.
func (s *SearchEngine) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if err := s.indexer.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing index: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = min(limit, s.maxLimit)

	candidates, err := s.planFilters(req.Filters, req.Query)
	if err != nil {
		return nil, err
	}
	candidates = s.applyPostFilters(candidates, req.Filters)

	docIDs := candidates.ToArray()
	slices.Reverse(docIDs)

	start := min(max(req.Offset, 0), len(docIDs))
	end := min(start+limit, len(docIDs))

	results := make([]*types.RecordSummary, 0, end-start)
	for _, docID := range docIDs[start:end] {
		if meta := s.indexer.GetMeta(docID); meta != nil {
			results = append(results, meta.ToSummary())
		}
	}

	return &types.SearchResponse{
		Results:    results,
		TotalHint:  len(docIDs),
		SyncedAtMs: s.indexer.LastSyncTime().UnixMilli(),
	}, nil
}

// planFilters converts SearchFilters to bitmap operations.
func (s *SearchEngine) planFilters(filters *types.SearchFilters, query string) (*roaring.Bitmap, error) {
	result := s.indexer.AllDocIDs()

	if filters != nil {
		narrow := func(bm *roaring.Bitmap) {
			if bm == nil {
				result = roaring.New()
				return
			}
			result.And(bm)
		}

		if filters.Host != "" {
			narrow(s.indexer.GetBitmapForHost(strings.ToLower(filters.Host)))
		}
		if filters.Method != "" {
			narrow(s.indexer.GetBitmapForMethod(filters.Method))
		}
		if filters.Status != 0 {
			narrow(s.indexer.GetBitmapForStatus(filters.Status))
		}
		if filters.State != "" {
			state, err := parseState(filters.State)
			if err != nil {
				return nil, err
			}
			narrow(s.indexer.GetBitmapForState(state))
		}
		if filters.HeaderName != "" {
			narrow(s.indexer.GetBitmapForHeaderName(filters.HeaderName))
		}
	}

	// Free text: every query token must appear in the URL tokens.
	for _, token := range indexer.Tokenize(query) {
		bm := s.indexer.GetBitmapForToken(token)
		if bm == nil {
			return roaring.New(), nil
		}
		result.And(bm)
	}

	return result, nil
}

// applyPostFilters applies filters that need per-record metadata.
func (s *SearchEngine) applyPostFilters(candidates *roaring.Bitmap, filters *types.SearchFilters) *roaring.Bitmap {
	if filters == nil || (filters.URLContains == "" && filters.MinDurationMs <= 0 && filters.SinceMs <= 0) {
		return candidates
	}

	urlNeedle := strings.ToLower(filters.URLContains)
	result := roaring.New()
	iter := candidates.Iterator()
	for iter.HasNext() {
		docID := iter.Next()
		meta := s.indexer.GetMeta(docID)
		if meta == nil {
			continue
		}
		if filters.SinceMs > 0 && meta.TsMs < filters.SinceMs {
			continue
		}
		if urlNeedle != "" && !strings.Contains(strings.ToLower(meta.URL), urlNeedle) {
			continue
		}
		if filters.MinDurationMs > 0 && (meta.DurationMs == nil || *meta.DurationMs < filters.MinDurationMs) {
			continue
		}
		result.Add(docID)
	}
	return result
}

func parseState(s string) (recorder.State, error) {
	switch st := recorder.State(strings.ToLower(s)); st {
	case recorder.StatePending, recorder.StateCompleted, recorder.StateFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown state %q (want pending, completed or failed)", s)
}
