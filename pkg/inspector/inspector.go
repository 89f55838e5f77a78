package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/httpinspect/internal/cache"
	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/indexer"
	"github.com/usestring/httpinspect/internal/interceptor"
	"github.com/usestring/httpinspect/internal/logging"
	"github.com/usestring/httpinspect/internal/mcp"
	"github.com/usestring/httpinspect/internal/query"
	"github.com/usestring/httpinspect/internal/recorder"
	"github.com/usestring/httpinspect/internal/search"
	"github.com/usestring/httpinspect/pkg/jsontree"
)

// Inspector records the exchanges of one http.Client and presents them.
type Inspector struct {
	cfg        *config.Config
	client     *http.Client
	recorder   *recorder.Recorder
	indexer    *indexer.Indexer
	deps       *Deps
	server     *mcp.Server
	logCleanup func() error

	startOnce sync.Once
	closeOnce sync.Once
}

// New creates an Inspector. Nothing is recorded until Start.
func New(opts ...Option) (*Inspector, error) {
	cfg := &inspectorConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}

	logCfg := logging.FromConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	trees, err := cache.NewTreeCache(cfg.config.TreeCacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create tree cache: %w", err)
	}

	rec := recorder.New(recorder.WithMaxRecords(cfg.config.MaxRecords))
	idx := indexer.New(rec, cfg.config)

	deps := &Deps{
		Recorder: rec,
		Indexer:  idx,
		Search:   search.New(idx, cfg.config),
		Query:    query.NewEngine(),
		Trees:    trees,
		Config:   cfg.config,
	}

	var serverOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		serverOpts = append(serverOpts, mcp.WithBuiltinTools())
	}
	for _, fn := range cfg.registrations {
		serverOpts = append(serverOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		serverOpts = append(serverOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	server, err := mcp.NewServer(deps.toolDeps(), serverOpts...)
	if err != nil {
		rec.Close()
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Inspector{
		cfg:        cfg.config,
		client:     cfg.httpClient,
		recorder:   rec,
		indexer:    idx,
		deps:       deps,
		server:     server,
		logCleanup: logCleanup,
	}, nil
}

// Start instruments the client. Calling it again, or on a client that is
// already instrumented, changes nothing.
func (i *Inspector) Start() {
	i.startOnce.Do(func() {
		installed := interceptor.Install(i.client, i.recorder,
			interceptor.WithMaxBodyBytes(i.cfg.MaxBodyBytes),
		)
		slog.Info("http client instrumented",
			slog.Bool("installed", installed),
			slog.Int("max_records", i.cfg.MaxRecords),
			slog.Int("max_body_bytes", i.cfg.MaxBodyBytes),
		)
	})
}

// Client returns the instrumented client.
func (i *Inspector) Client() *http.Client {
	return i.client
}

// Recorder returns the record log.
func (i *Inspector) Recorder() *recorder.Recorder {
	return i.recorder
}

// Deps returns the dependencies for building custom tools.
func (i *Inspector) Deps() *Deps {
	return i.deps
}

// Parse builds a node tree from JSON text.
func (i *Inspector) Parse(text []byte) ([]*jsontree.Node, error) {
	return jsontree.Parse(text)
}

// Tree returns the parsed body of one side ("request" or "response") of a
// record. Trees are cached and shared; callers must not modify them.
func (i *Inspector) Tree(recordID, target string) ([]*jsontree.Node, error) {
	return i.deps.toolDeps().Tree(recordID, target)
}

// Run keeps the search index current and runs the configured presentation
// until ctx ends or the presentation stops.
func (i *Inspector) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return i.indexer.Follow(gctx)
	})
	g.Go(func() error {
		defer cancel()
		switch i.cfg.Presentation {
		case config.PresentationLog:
			return runLogPresentation(gctx, i.recorder)
		default:
			slog.Info("serving MCP on stdio", slog.String("version", mcp.Version))
			return i.server.Run(gctx)
		}
	})

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops recording and releases the log file. Exchanges in flight
// after Close are passed through unrecorded.
func (i *Inspector) Close() error {
	var err error
	i.closeOnce.Do(func() {
		i.recorder.Close()
		if i.logCleanup != nil {
			err = i.logCleanup()
		}
	})
	return err
}
