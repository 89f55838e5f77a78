package tools

import (
	"fmt"

	"github.com/usestring/httpinspect/internal/cache"
	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/query"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/internal/search"
	"github.com/usestring/httpinspect/pkg/jsontree"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Recorder *recorder.Recorder
	Indexer  *indexer.Indexer
	Search   *search.SearchEngine
	Query    *query.Engine
	Trees    *cache.TreeCache
	Config   *config.Config
}

// FetchRecord returns the record with the given id.
func (d *Deps) FetchRecord(recordID string) (recorder.Record, error) {
	rec, ok := d.Recorder.Get(recordID)
	if !ok {
		return recorder.Record{}, ErrNotFound("record", recordID)
	}
	return rec, nil
}

// Body returns the captured body of one side of a record.
func (d *Deps) Body(recordID, target string) ([]byte, error) {
	rec, err := d.FetchRecord(recordID)
	if err != nil {
		return nil, err
	}
	return bodyOf(&rec, target)
}

// Tree returns the parsed body tree of one side of a record. Trees are
// cached per record and target; failures are not.
func (d *Deps) Tree(recordID, target string) ([]*jsontree.Node, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	roots, err := d.Trees.GetOrParse(cache.Key(recordID, target), func() ([]byte, error) {
		return d.Body(recordID, target)
	})
	if err != nil {
		return nil, WrapBodyError(err)
	}
	return roots, nil
}

// Clear removes every record and every cached tree.
func (d *Deps) Clear() int {
	n := d.Recorder.Len()
	d.Recorder.Clear()
	// Len waits for the queued clear to apply.
	d.Recorder.Len()
	d.Trees.Purge()
	return n
}

func bodyOf(rec *recorder.Record, target string) ([]byte, error) {
	body, _, ok := rec.Body(target)
	if !ok {
		if err := checkTarget(target); err != nil {
			return nil, err
		}
		return nil, &CodedError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("record %s has no %s (state %s)", rec.ID, target, rec.State()),
		}
	}
	if len(body) == 0 {
		return nil, &CodedError{
			Code:    ErrCodeParseError,
			Message: fmt.Sprintf("record %s has an empty %s body", rec.ID, target),
		}
	}
	return body, nil
}

func checkTarget(target string) error {
	if target != recorder.TargetRequest && target != recorder.TargetResponse {
		return ErrInvalidInput("target must be 'request' or 'response'")
	}
	return nil
}
