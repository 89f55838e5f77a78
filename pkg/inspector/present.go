package inspector

import (
	"context"
	"log/slog"

	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/recorder"
)

// runLogPresentation writes one log line per change to the record log,
// describing the newest record. Changes that arrive while a line is being
// written are folded into the next one.
func runLogPresentation(ctx context.Context, rec *recorder.Recorder) error {
	changed := make(chan struct{}, 1)
	cancel := rec.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	slog.Info("logging record changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			logNewest(ctx, rec.Snapshot())
		}
	}
}

func logNewest(ctx context.Context, snap []recorder.Record) {
	if len(snap) == 0 {
		slog.InfoContext(ctx, "record log empty")
		return
	}
	s := indexer.FromRecord(&snap[0]).ToSummary()
	attrs := []slog.Attr{
		slog.Int("records", len(snap)),
		slog.String("record_id", s.RecordID),
		slog.String("state", s.State),
		slog.String("method", s.Method),
		slog.String("url", s.URL),
	}
	if s.Status != 0 {
		attrs = append(attrs, slog.Int("status", s.Status))
	}
	if s.DurationMs != nil {
		attrs = append(attrs, slog.Int64("duration_ms", *s.DurationMs))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error), slog.String("error_domain", s.ErrorDomain))
	}
	if s.Sizes.RespBodyBytes > 0 {
		attrs = append(attrs, slog.Int("resp_body_bytes", s.Sizes.RespBodyBytes))
	}
	slog.LogAttrs(ctx, slog.LevelInfo, "record log changed", attrs...)
}
