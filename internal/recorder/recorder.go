package recorder

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder is the single source of truth for captured exchanges.
//
// All mutations are queued and applied by one loop goroutine, so callers on
// network goroutines never wait on the log. Reads go through the same queue
// and therefore observe every mutation enqueued before them. Subscribers are
// called from a separate notifier goroutine and may read from the Recorder.
type Recorder struct {
	clock      Clock
	maxRecords int

	ops   *queue[func()]
	notes *queue[[]*subscriber]

	// Owned by the loop goroutine. Oldest first.
	log  []*Record
	byID map[string]*Record

	subMu   sync.Mutex
	subs    []*subscriber
	nextSub uint64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type subscriber struct {
	id     uint64
	fn     func()
	active atomic.Bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the time source used for timestamps and durations.
func WithClock(c Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithMaxRecords bounds the log. When exceeded, the oldest records are
// dropped. Zero or negative means unbounded.
func WithMaxRecords(n int) Option {
	return func(r *Recorder) {
		r.maxRecords = n
	}
}

// New creates a Recorder and starts its goroutines. Call Close to stop them.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		clock: realClock{},
		ops:   newQueue[func()](),
		notes: newQueue[[]*subscriber](),
		byID:  make(map[string]*Record),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(2)
	go r.loop()
	go r.notify()
	return r
}

// Create registers a pending exchange. A duplicate id is ignored.
func (r *Recorder) Create(id string, req RequestRecord) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = r.clock.Now()
	}
	r.enqueue(func() { r.applyCreate(id, req) })
}

// Complete records the outcome of a pending exchange. Unknown ids and
// already completed records are ignored.
func (r *Recorder) Complete(id string, outcome Outcome) {
	outcome.at = r.clock.Now()
	r.enqueue(func() { r.applyComplete(id, outcome) })
}

// Clear removes every record.
func (r *Recorder) Clear() {
	r.enqueue(r.applyClear)
}

// Snapshot returns the log, most recent first. Returns nil after Close.
func (r *Recorder) Snapshot() []Record {
	return read(r, func() []Record {
		out := make([]Record, len(r.log))
		for i, rec := range r.log {
			out[len(r.log)-1-i] = *rec
		}
		return out
	})
}

// Get returns the record with the given id.
func (r *Recorder) Get(id string) (Record, bool) {
	type result struct {
		rec Record
		ok  bool
	}
	res := read(r, func() result {
		rec, ok := r.byID[id]
		if !ok {
			return result{}
		}
		return result{rec: *rec, ok: true}
	})
	return res.rec, res.ok
}

// Len returns the number of records in the log.
func (r *Recorder) Len() int {
	return read(r, func() int { return len(r.log) })
}

// Subscribe registers fn to be called once after every change to the log.
// The returned function unregisters it and may be called more than once.
func (r *Recorder) Subscribe(fn func()) (cancel func()) {
	r.subMu.Lock()
	r.nextSub++
	sub := &subscriber{id: r.nextSub, fn: fn}
	sub.active.Store(true)
	r.subs = append(r.subs, sub)
	r.subMu.Unlock()

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		r.subMu.Lock()
		defer r.subMu.Unlock()
		r.subs = slices.DeleteFunc(r.subs, func(s *subscriber) bool { return s.id == sub.id })
	}
}

// Close stops the Recorder's goroutines. Operations after Close are ignored.
// Close must not be called from a subscriber callback.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

func (r *Recorder) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Recorder) enqueue(op func()) bool {
	if r.closed() {
		return false
	}
	r.ops.push(op)
	return true
}

// read runs fn on the loop goroutine and waits for its result.
func read[T any](r *Recorder, fn func() T) T {
	reply := make(chan T, 1)
	var zero T
	if !r.enqueue(func() { reply <- fn() }) {
		return zero
	}
	select {
	case v := <-reply:
		return v
	case <-r.done:
		return zero
	}
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.ops.wake:
			for _, op := range r.ops.drain() {
				op()
			}
		}
	}
}

func (r *Recorder) notify() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.notes.wake:
			for _, subs := range r.notes.drain() {
				for _, sub := range subs {
					if sub.active.Load() {
						sub.fn()
					}
				}
			}
		}
	}
}

// publish schedules one notification for the current subscribers.
func (r *Recorder) publish() {
	r.subMu.Lock()
	subs := slices.Clone(r.subs)
	r.subMu.Unlock()
	r.notes.push(subs)
}

func (r *Recorder) applyCreate(id string, req RequestRecord) {
	if _, exists := r.byID[id]; exists {
		slog.Debug("ignoring duplicate record id", slog.String("record_id", id))
		return
	}

	rec := &Record{ID: id, Request: req}
	r.log = append(r.log, rec)
	r.byID[id] = rec

	if r.maxRecords > 0 && len(r.log) > r.maxRecords {
		evict := len(r.log) - r.maxRecords
		for _, old := range r.log[:evict] {
			delete(r.byID, old.ID)
		}
		r.log = slices.Delete(r.log, 0, evict)
		slog.Debug("evicted oldest records",
			slog.Int("evicted", evict),
			slog.Int("max_records", r.maxRecords),
		)
	}

	r.publish()
}

func (r *Recorder) applyComplete(id string, outcome Outcome) {
	if !outcome.valid() {
		slog.Debug("ignoring malformed outcome", slog.String("record_id", id))
		return
	}

	rec, ok := r.byID[id]
	if !ok {
		slog.Debug("ignoring completion for unknown record", slog.String("record_id", id))
		return
	}
	if rec.State() != StatePending {
		return
	}

	d := outcome.at.Sub(rec.Request.CreatedAt)
	if d < 0 {
		d = 0
	}

	// Snapshots hold copies of the struct, so assigning the pointer
	// fields here does not reach records already handed out.
	rec.Duration = &d
	if outcome.response != nil {
		resp := *outcome.response
		if resp.ReceivedAt.IsZero() {
			resp.ReceivedAt = outcome.at
		}
		rec.Response = &resp
	} else {
		e := *outcome.err
		rec.Err = &e
	}

	r.publish()
}

func (r *Recorder) applyClear() {
	r.log = nil
	r.byID = make(map[string]*Record)
	r.publish()
}

// Elapsed returns the duration of a finished record, or how long a pending
// one has been in flight by the recorder's clock.
func (r *Recorder) Elapsed(rec *Record) time.Duration {
	if rec.Duration != nil {
		return *rec.Duration
	}
	return r.clock.Now().Sub(rec.Request.CreatedAt)
}
