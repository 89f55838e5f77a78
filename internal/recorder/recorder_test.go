package recorder

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestRecorder(t *testing.T, opts ...Option) *Recorder {
	t.Helper()
	r := New(opts...)
	t.Cleanup(r.Close)
	return r
}

func makeRequest(url string) RequestRecord {
	return RequestRecord{
		URL:    url,
		Method: http.MethodGet,
		Header: http.Header{"Accept": {"application/json"}},
	}
}

// counter subscribes to r and counts notifications.
type counter struct {
	n      atomic.Int64
	signal chan struct{}
}

func subscribeCounter(t *testing.T, r *Recorder) *counter {
	t.Helper()
	c := &counter{signal: make(chan struct{}, 64)}
	cancel := r.Subscribe(func() {
		c.n.Add(1)
		c.signal <- struct{}{}
	})
	t.Cleanup(cancel)
	return c
}

func (c *counter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for notification %d of %d", i+1, n)
		}
	}
}

func TestCreate_VisiblePendingMostRecentFirst(t *testing.T) {
	r := newTestRecorder(t)

	r.Create("a", makeRequest("https://a.example/"))
	r.Create("b", makeRequest("https://b.example/"))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, "a", snap[1].ID)
	assert.Equal(t, StatePending, snap[0].State())
	assert.Nil(t, snap[0].Duration)
	assert.False(t, snap[0].Request.CreatedAt.IsZero())
}

func TestCreate_DuplicateIgnored(t *testing.T) {
	r := newTestRecorder(t)
	c := subscribeCounter(t, r)

	r.Create("a", makeRequest("https://first.example/"))
	r.Create("a", makeRequest("https://second.example/"))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "https://first.example/", snap[0].Request.URL)

	c.wait(t, 1)
	assert.Equal(t, int64(1), c.n.Load())
}

func TestComplete_Response(t *testing.T) {
	clk := NewFakeClock(t0)
	r := newTestRecorder(t, WithClock(clk))

	r.Create("a", makeRequest("https://a.example/"))
	clk.Advance(250 * time.Millisecond)
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 200, Body: []byte(`{}`)}))

	rec, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, StateCompleted, rec.State())
	require.NotNil(t, rec.Response)
	assert.Nil(t, rec.Err)
	assert.Equal(t, 200, rec.Response.StatusCode)
	assert.Equal(t, t0.Add(250*time.Millisecond), rec.Response.ReceivedAt)
	require.NotNil(t, rec.Duration)
	assert.Equal(t, 250*time.Millisecond, *rec.Duration)
}

func TestElapsed_PendingThenFinal(t *testing.T) {
	clk := NewFakeClock(t0)
	r := newTestRecorder(t, WithClock(clk))

	r.Create("a", makeRequest("https://a.example/"))
	clk.Advance(time.Second)
	rec, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, time.Second, r.Elapsed(&rec))

	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 204}))
	clk.Advance(time.Minute)
	rec, ok = r.Get("a")
	require.True(t, ok)
	assert.Equal(t, time.Second, r.Elapsed(&rec))
}

func TestComplete_Error(t *testing.T) {
	r := newTestRecorder(t)

	r.Create("a", makeRequest("https://a.example/"))
	r.Complete("a", ErrorOutcome(ErrorRecord{Description: "dial tcp: refused", Domain: DomainErrno, Code: 111}))

	rec, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, StateFailed, rec.State())
	assert.Nil(t, rec.Response)
	require.NotNil(t, rec.Err)
	assert.Equal(t, 111, rec.Err.Code)
	require.NotNil(t, rec.Duration)
	assert.GreaterOrEqual(t, *rec.Duration, time.Duration(0))
}

func TestComplete_TerminalStatesAreFinal(t *testing.T) {
	r := newTestRecorder(t)
	c := subscribeCounter(t, r)

	r.Create("a", makeRequest("https://a.example/"))
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 204}))
	r.Complete("a", ErrorOutcome(ErrorRecord{Description: "late"}))
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 500}))

	rec, _ := r.Get("a")
	assert.Equal(t, StateCompleted, rec.State())
	assert.Equal(t, 204, rec.Response.StatusCode)
	assert.Nil(t, rec.Err)

	c.wait(t, 2) // create + first complete
	assert.Equal(t, int64(2), c.n.Load())
}

func TestComplete_UnknownIDIsNoop(t *testing.T) {
	r := newTestRecorder(t)
	r.Create("a", makeRequest("https://a.example/"))
	before := r.Snapshot()

	r.Complete("missing", ResponseOutcome(ResponseRecord{StatusCode: 200}))

	assert.Equal(t, before, r.Snapshot())
}

func TestComplete_MalformedOutcomeIgnored(t *testing.T) {
	r := newTestRecorder(t)
	r.Create("a", makeRequest("https://a.example/"))

	r.Complete("a", Outcome{})

	rec, _ := r.Get("a")
	assert.Equal(t, StatePending, rec.State())
}

func TestComplete_AfterClearIsNoop(t *testing.T) {
	r := newTestRecorder(t)
	r.Create("a", makeRequest("https://a.example/"))
	r.Clear()
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 200}))

	assert.Empty(t, r.Snapshot())
	assert.Equal(t, 0, r.Len())
}

func TestClear_OneNotification(t *testing.T) {
	r := newTestRecorder(t)
	r.Create("a", makeRequest("https://a.example/"))
	r.Create("b", makeRequest("https://b.example/"))
	r.Snapshot() // both creates applied before subscribing

	c := subscribeCounter(t, r)
	r.Clear()

	assert.Len(t, r.Snapshot(), 0)
	c.wait(t, 1)

	// Nothing else should arrive.
	select {
	case <-c.signal:
		t.Fatal("unexpected extra notification")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int64(1), c.n.Load())
}

func TestClear_EmptyStillNotifies(t *testing.T) {
	r := newTestRecorder(t)
	c := subscribeCounter(t, r)
	r.Clear()
	c.wait(t, 1)
}

func TestSubscribe_EverySubscriberOncePerChange(t *testing.T) {
	r := newTestRecorder(t)
	c1 := subscribeCounter(t, r)
	c2 := subscribeCounter(t, r)

	r.Create("a", makeRequest("https://a.example/"))
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 200}))
	r.Clear()

	c1.wait(t, 3)
	c2.wait(t, 3)
	assert.Equal(t, int64(3), c1.n.Load())
	assert.Equal(t, int64(3), c2.n.Load())
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	r := newTestRecorder(t)
	var calls atomic.Int64
	cancel := r.Subscribe(func() { calls.Add(1) })
	cancel()
	cancel() // idempotent

	r.Create("a", makeRequest("https://a.example/"))
	r.Snapshot()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), calls.Load())
}

func TestSubscribe_CallbackCanSnapshot(t *testing.T) {
	r := newTestRecorder(t)
	got := make(chan int, 1)
	cancel := r.Subscribe(func() { got <- len(r.Snapshot()) })
	defer cancel()

	r.Create("a", makeRequest("https://a.example/"))

	select {
	case n := <-got:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not run")
	}
}

func TestMaxRecords_EvictsOldest(t *testing.T) {
	r := newTestRecorder(t, WithMaxRecords(2))

	r.Create("a", makeRequest("https://a.example/"))
	r.Create("b", makeRequest("https://b.example/"))
	r.Create("c", makeRequest("https://c.example/"))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "c", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)

	// Completing an evicted record is silently ignored.
	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 200}))
	_, ok := r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestSnapshot_CopiesAreIndependent(t *testing.T) {
	r := newTestRecorder(t)
	r.Create("a", makeRequest("https://a.example/"))
	before := r.Snapshot()

	r.Complete("a", ResponseOutcome(ResponseRecord{StatusCode: 200}))

	assert.Equal(t, StatePending, before[0].State())
	assert.Equal(t, StateCompleted, r.Snapshot()[0].State())
}

func TestConcurrentDispatch(t *testing.T) {
	r := newTestRecorder(t)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "req-" + strconv.Itoa(i)
			r.Create(id, makeRequest("https://example.com/"))
			if i%2 == 0 {
				r.Complete(id, ResponseOutcome(ResponseRecord{StatusCode: 200}))
			} else {
				r.Complete(id, ErrorOutcome(ErrorRecord{Description: "boom"}))
			}
		}(i)
	}
	wg.Wait()

	snap := r.Snapshot()
	require.Len(t, snap, n)
	for _, rec := range snap {
		assert.NotEqual(t, StatePending, rec.State())
		assert.False(t, rec.Response != nil && rec.Err != nil)
		require.NotNil(t, rec.Duration)
	}
}

func TestClose_OperationsIgnored(t *testing.T) {
	r := New()
	r.Create("a", makeRequest("https://a.example/"))
	r.Close()
	r.Close()

	r.Create("b", makeRequest("https://b.example/"))
	assert.Nil(t, r.Snapshot())
	assert.Equal(t, 0, r.Len())
}
