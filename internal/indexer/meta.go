// Package indexer maintains a searchable index over the recorder's log.
package indexer

import (
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/pkg/types"
)

// RecordMeta holds searchable fields for one record.
// Bodies are not stored; only metadata needed for indexing and search.
type RecordMeta struct {
	DocID            uint32
	RecordID         string
	TsMs             int64
	State            recorder.State
	Method           string
	URL              string
	Host             string
	Path             string
	Status           int
	DurationMs       *int64
	ErrDescription   string
	ErrDomain        string
	HeaderNamesLower []string

	// Size tracking
	ReqBodyBytes    int
	RespBodyBytes   int
	RespContentType string
	Truncated       bool
	Incomplete      bool
}

// ToSummary converts RecordMeta to RecordSummary for tool responses.
func (m *RecordMeta) ToSummary() *types.RecordSummary {
	return &types.RecordSummary{
		RecordID:    m.RecordID,
		TsMs:        m.TsMs,
		State:       string(m.State),
		Method:      m.Method,
		URL:         m.URL,
		Host:        m.Host,
		Path:        m.Path,
		Status:      m.Status,
		DurationMs:  m.DurationMs,
		Error:       m.ErrDescription,
		ErrorDomain: m.ErrDomain,
		Sizes: types.SizeSummary{
			ReqBodyBytes:    m.ReqBodyBytes,
			RespBodyBytes:   m.RespBodyBytes,
			RespContentType: m.RespContentType,
			Truncated:       m.Truncated,
			Incomplete:      m.Incomplete,
		},
	}
}
