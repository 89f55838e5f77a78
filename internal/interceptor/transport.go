// Package interceptor records HTTP exchanges by decorating an http.RoundTripper.
package interceptor

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/httpinspect/internal/recorder"
)

// DefaultMaxBodyBytes caps how much of each body is kept in a record.
const DefaultMaxBodyBytes = 1 << 20

// Sink receives the bracketing calls for every exchange. *recorder.Recorder
// implements it. Both methods must return without waiting on the network.
type Sink interface {
	Create(id string, req recorder.RequestRecord)
	Complete(id string, outcome recorder.Outcome)
}

// Transport is an http.RoundTripper that reports every exchange to a Sink
// and otherwise behaves exactly like Base.
type Transport struct {
	Base         http.RoundTripper
	Sink         Sink
	MaxBodyBytes int
	NewID        func() string
}

// Option configures a Transport.
type Option func(*Transport)

// WithMaxBodyBytes sets the per-body capture limit. Bodies longer than this
// are still delivered in full to the caller; only the record is truncated.
func WithMaxBodyBytes(n int) Option {
	return func(t *Transport) {
		t.MaxBodyBytes = n
	}
}

// WithIDGenerator overrides correlation id generation.
func WithIDGenerator(fn func() string) Option {
	return func(t *Transport) {
		t.NewID = fn
	}
}

// NewTransport wraps base (nil means http.DefaultTransport).
func NewTransport(base http.RoundTripper, sink Sink, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &Transport{
		Base:         base,
		Sink:         sink,
		MaxBodyBytes: DefaultMaxBodyBytes,
		NewID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Install wraps client's transport so its exchanges are recorded in sink.
// It reports false, changing nothing, if the client is already instrumented.
func Install(client *http.Client, sink Sink, opts ...Option) bool {
	if _, ok := client.Transport.(*Transport); ok {
		return false
	}
	client.Transport = NewTransport(client.Transport, sink, opts...)
	return true
}

// Installed reports whether client's transport is a Transport.
func Installed(client *http.Client) bool {
	_, ok := client.Transport.(*Transport)
	return ok
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := t.NewID()
	t.Sink.Create(id, t.requestRecord(req))

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		t.Sink.Complete(id, recorder.ErrorOutcome(Classify(err)))
		slog.Debug("HTTP exchange failed",
			slog.String("record_id", id),
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return resp, err
	}

	t.captureResponse(id, req, resp)
	return resp, nil
}

func (t *Transport) requestRecord(req *http.Request) recorder.RequestRecord {
	rec := recorder.RequestRecord{
		URL:    req.URL.String(),
		Method: req.Method,
		Header: req.Header.Clone(),
	}
	if rec.Method == "" {
		rec.Method = http.MethodGet
	}

	// Only bodies that can be re-read are captured; req.Body belongs to Base.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			slog.Debug("could not re-read request body", slog.String("error", err.Error()))
			return rec
		}
		defer body.Close()
		rec.Body, rec.BodyTruncated = readCapped(body, t.MaxBodyBytes)
	}
	return rec
}

func (t *Transport) captureResponse(id string, req *http.Request, resp *http.Response) {
	meta := recorder.ResponseRecord{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header.Clone(),
	}
	start := time.Now()

	finish := func(c capture) {
		meta.Body = c.body
		meta.BodyTruncated = c.truncated
		meta.BodyIncomplete = c.incomplete
		attrs := []any{
			slog.String("record_id", id),
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if c.err != nil {
			e := Classify(c.err)
			e.Description = fmt.Sprintf("reading %s body: %s", resp.Status, e.Description)
			meta.BodyError = &e
			attrs = append(attrs, slog.String("error", e.Description))
		}
		t.Sink.Complete(id, recorder.ResponseOutcome(meta))
		slog.Debug("HTTP exchange completed", attrs...)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		finish(capture{})
		return
	}
	// Upgraded connections hand the caller a writable body; it stays
	// untouched and the exchange completes with the handshake.
	if _, rw := resp.Body.(io.Writer); rw || resp.StatusCode == http.StatusSwitchingProtocols {
		finish(capture{})
		return
	}
	resp.Body = &captureBody{
		rc:     resp.Body,
		limit:  t.MaxBodyBytes,
		length: resp.ContentLength,
		finish: finish,
	}
}

// capture is what captureBody saw of a response body.
type capture struct {
	body       []byte
	truncated  bool
	incomplete bool
	err        error
}

// captureBody tees what the caller reads into a bounded buffer and reports
// the exchange once, at EOF, on a read error, or on Close. Close may race
// with Read from another goroutine.
type captureBody struct {
	rc     io.ReadCloser
	limit  int
	length int64 // Content-Length, -1 if unknown
	finish func(capture)

	mu   sync.Mutex
	buf  bytes.Buffer
	read int64
	over bool
	once sync.Once
}

func (b *captureBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.keep(p[:n])
	}
	switch {
	case err == io.EOF:
		b.done(false, nil)
	case err != nil:
		b.done(true, err)
	}
	return n, err
}

func (b *captureBody) Close() error {
	err := b.rc.Close()
	b.mu.Lock()
	early := b.length < 0 || b.read < b.length
	b.mu.Unlock()
	b.done(early, nil)
	return err
}

func (b *captureBody) keep(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.read += int64(len(p))
	room := b.limit - b.buf.Len()
	if b.limit <= 0 || room >= len(p) {
		b.buf.Write(p)
		return
	}
	if room > 0 {
		b.buf.Write(p[:room])
	}
	b.over = true
}

func (b *captureBody) done(incomplete bool, err error) {
	b.once.Do(func() {
		b.mu.Lock()
		c := capture{truncated: b.over, incomplete: incomplete, err: err}
		if b.buf.Len() > 0 {
			c.body = bytes.Clone(b.buf.Bytes())
		}
		b.mu.Unlock()
		b.finish(c)
	})
}

// readCapped reads all of r, keeping at most limit bytes (limit <= 0 keeps
// everything).
func readCapped(r io.Reader, limit int) ([]byte, bool) {
	if limit <= 0 {
		data, _ := io.ReadAll(r)
		return data, false
	}
	data, _ := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if len(data) > limit {
		return data[:limit], true
	}
	return data, false
}
