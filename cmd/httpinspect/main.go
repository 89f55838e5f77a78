// Command httpinspect is a demo host: it instruments http.DefaultClient,
// dispatches a batch of concurrent requests and presents the captured log.
//
// With no arguments it serves a small JSON API on a loopback port and calls
// that; otherwise every argument is fetched as a URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/httpinspect/pkg/inspector"
)

const maxConcurrentRequests = 4

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration is loaded from environment variables:
	// - PRESENTATION: mcp (default) or log
	// - HTTPINSPECT_MAX_RECORDS, HTTPINSPECT_MAX_BODY_BYTES
	// - LOG_LEVEL, LOG_FORMAT, LOG_FILE
	// - etc. (see internal/config for all options)
	insp, err := inspector.New()
	if err != nil {
		slog.Error("failed to create inspector", "error", err)
		os.Exit(1)
	}
	defer insp.Close()
	insp.Start()

	urls := os.Args[1:]
	if len(urls) == 0 {
		base, stop, err := serveDemoAPI()
		if err != nil {
			slog.Error("failed to start demo API", "error", err)
			os.Exit(1)
		}
		defer stop()
		urls = demoURLs(base)
	}

	go func() {
		if err := dispatch(ctx, http.DefaultClient, urls); err != nil {
			slog.Warn("dispatch stopped", "error", err)
		}
	}()

	slog.Info("starting httpinspect", slog.Int("urls", len(urls)))
	if err := insp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("inspector error", "error", err)
		os.Exit(1)
	}

	slog.Info("inspector stopped")
}

// dispatch fetches every url concurrently. Request failures are recorded by
// the inspector and only logged here.
func dispatch(ctx context.Context, client *http.Client, urls []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)
	for _, u := range urls {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return fmt.Errorf("building request for %s: %w", u, err)
			}
			resp, err := client.Do(req)
			if err != nil {
				slog.Debug("request failed", slog.String("url", u), slog.String("error", err.Error()))
				return nil
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		})
	}
	return g.Wait()
}

func demoURLs(base string) []string {
	return []string{
		base + "/users?page=1",
		base + "/users/42",
		base + "/orders",
		base + "/slow",
		base + "/missing",
	}
}

// serveDemoAPI serves canned JSON on a loopback port and returns its base URL.
func serveDemoAPI() (string, func(), error) {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"page":1,"users":[{"id":42,"name":"Ada","admin":true},{"id":43,"name":"Lin","admin":false,"team":null}]}`)
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%q,"balance":12.50,"tags":["beta"]}`, r.PathValue("id")))
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"o-1","total":3},{"id":"o-2","total":7.25}]`)
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(1500 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, `{"done":true}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"not found"}`)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listening: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("demo API stopped", "error", err)
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}
