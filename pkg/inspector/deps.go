package inspector

import (
	"github.com/usestring/httpinspect/internal/cache"
	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/mcp/tools"
	"github.com/usestring/httpinspect/internal/query"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/internal/search"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Recorder *recorder.Recorder
	Indexer  *indexer.Indexer
	Search   *search.SearchEngine
	Query    *query.Engine
	Trees    *cache.TreeCache
	Config   *config.Config
}

func (d *Deps) toolDeps() *tools.Deps {
	return &tools.Deps{
		Recorder: d.Recorder,
		Indexer:  d.Indexer,
		Search:   d.Search,
		Query:    d.Query,
		Trees:    d.Trees,
		Config:   d.Config,
	}
}
