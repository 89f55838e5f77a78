package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/usestring/httpinspect/internal/recorder"
)

// refreshStrategy indicates how to handle a refresh.
type refreshStrategy int

const (
	strategyAppendOnly refreshStrategy = iota
	strategyRebuild
)

func (s refreshStrategy) String() string {
	if s == strategyRebuild {
		return "rebuild"
	}
	return "append_only"
}

// Refresh brings the index up to date with the source. Concurrent calls
// share one pass.
func (idx *Indexer) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err, _ := idx.group.Do("refresh", func() (any, error) {
		idx.doRefresh()
		return nil, nil
	})
	return err
}

// Follow refreshes the index after changes to the source until ctx ends.
// Bursts of changes are coalesced to one refresh per interval.
func (idx *Indexer) Follow(ctx context.Context) error {
	cancel := idx.source.Subscribe(func() { idx.dirty.Store(true) })
	defer cancel()

	interval := idx.interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("following record log", slog.Duration("interval", interval))

	if err := idx.Refresh(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopped following record log")
			return nil
		case <-ticker.C:
			if idx.dirty.Swap(false) {
				if err := idx.Refresh(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("index refresh failed", slog.String("error", err.Error()))
				}
			}
		}
	}
}

// doRefresh performs the actual refresh logic.
func (idx *Indexer) doRefresh() {
	start := time.Now()

	snap := idx.source.Snapshot()
	// Snapshot is most recent first; the index assigns ids oldest first.
	ordered := make([]*recorder.Record, len(snap))
	for i := range snap {
		ordered[len(snap)-1-i] = &snap[i]
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	strategy := detectRefreshStrategy(ordered, idx.state)

	var toIndex []*recorder.Record
	switch strategy {
	case strategyRebuild:
		idx.reset()
		toIndex = ordered
	case strategyAppendOnly:
		toIndex = ordered[idx.state.count:]
	}

	for _, rec := range toIndex {
		idx.index(rec)
	}

	// Records indexed while pending may have completed since.
	settled := 0
	if strategy == strategyAppendOnly && !idx.pending.IsEmpty() {
		byID := make(map[string]*recorder.Record, len(ordered))
		for _, rec := range ordered[:idx.state.count] {
			byID[rec.ID] = rec
		}
		for _, docID := range idx.pending.ToArray() {
			rec, ok := byID[idx.docToMeta[docID].RecordID]
			if ok && rec.State() != recorder.StatePending {
				idx.settle(docID, rec)
				settled++
			}
		}
	}

	idx.state.count = len(ordered)
	idx.state.headID, idx.state.tailID = "", ""
	if len(ordered) > 0 {
		idx.state.headID = ordered[0].ID
		idx.state.tailID = ordered[len(ordered)-1].ID
	}
	idx.state.lastSyncAt = time.Now()

	slog.Debug("index refresh completed",
		slog.String("strategy", strategy.String()),
		slog.Int("indexed", len(toIndex)),
		slog.Int("settled", settled),
		slog.Int("total_records", len(ordered)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// detectRefreshStrategy determines append-only vs rebuild by comparing the
// oldest-first log against what the last refresh saw.
func detectRefreshStrategy(ordered []*recorder.Record, state syncState) refreshStrategy {
	// First sync always rebuilds
	if state.lastSyncAt.IsZero() {
		return strategyRebuild
	}

	// Cleared
	if len(ordered) < state.count {
		return strategyRebuild
	}

	if state.count > 0 {
		// Oldest records were evicted
		if ordered[0].ID != state.headID {
			return strategyRebuild
		}
		// Previous tail moved, the log was replaced
		if ordered[state.count-1].ID != state.tailID {
			return strategyRebuild
		}
	}

	return strategyAppendOnly
}
