package indexer

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/httpinspect/internal/config"
	"github.com/usestring/httpinspect/internal/recorder"
)

// Source is the record log the index follows. *recorder.Recorder implements it.
type Source interface {
	Snapshot() []recorder.Record
	Subscribe(fn func()) (cancel func())
}

// syncState tracks what the last refresh saw, oldest record first.
type syncState struct {
	count      int
	headID     string
	tailID     string
	lastSyncAt time.Time
}

// Indexer maintains in-memory indexes over records using Roaring bitmaps.
// Document ids are assigned oldest record first, so a larger id is a more
// recent record.
type Indexer struct {
	mu sync.RWMutex

	// ID mappings
	idToDoc   map[string]uint32
	docToMeta []*RecordMeta
	nextDocID uint32

	// Documents whose record was still pending when indexed
	pending *roaring.Bitmap

	// Inverted indexes
	idxHost       map[string]*roaring.Bitmap
	idxMethod     map[string]*roaring.Bitmap
	idxState      map[recorder.State]*roaring.Bitmap
	idxStatus     map[int]*roaring.Bitmap
	idxHeaderName map[string]*roaring.Bitmap
	idxToken      map[string]*roaring.Bitmap

	state syncState

	source   Source
	interval time.Duration
	group    singleflight.Group
	dirty    atomic.Bool
}

// New creates an Indexer over src. It is empty until the first Refresh.
func New(src Source, cfg *config.Config) *Indexer {
	idx := &Indexer{
		source:   src,
		interval: cfg.IndexRefreshInterval,
	}
	idx.reset()
	return idx
}

// reset drops every document. Callers hold mu.
func (idx *Indexer) reset() {
	idx.idToDoc = make(map[string]uint32)
	idx.docToMeta = make([]*RecordMeta, 0, 256)
	idx.nextDocID = 0
	idx.pending = roaring.New()
	idx.idxHost = make(map[string]*roaring.Bitmap)
	idx.idxMethod = make(map[string]*roaring.Bitmap)
	idx.idxState = make(map[recorder.State]*roaring.Bitmap)
	idx.idxStatus = make(map[int]*roaring.Bitmap)
	idx.idxHeaderName = make(map[string]*roaring.Bitmap)
	idx.idxToken = make(map[string]*roaring.Bitmap)
}

// index adds a record and returns its document id. Callers hold mu.
func (idx *Indexer) index(rec *recorder.Record) uint32 {
	if docID, exists := idx.idToDoc[rec.ID]; exists {
		return docID
	}

	docID := idx.nextDocID
	idx.nextDocID++

	meta := FromRecord(rec)
	meta.DocID = docID
	idx.idToDoc[rec.ID] = docID
	idx.docToMeta = append(idx.docToMeta, meta)

	if meta.Host != "" {
		addToBitmap(idx.idxHost, meta.Host, docID)
	}
	if meta.Method != "" {
		addToBitmap(idx.idxMethod, meta.Method, docID)
	}
	for _, name := range meta.HeaderNamesLower {
		addToBitmap(idx.idxHeaderName, name, docID)
	}
	for _, token := range TokenizeURL(meta.URL) {
		addToBitmap(idx.idxToken, token, docID)
	}

	idx.indexOutcome(meta)
	return docID
}

// indexOutcome files the fields that change when a record completes.
func (idx *Indexer) indexOutcome(meta *RecordMeta) {
	addToBitmap(idx.idxState, meta.State, meta.DocID)
	if meta.State == recorder.StatePending {
		idx.pending.Add(meta.DocID)
		return
	}
	idx.pending.Remove(meta.DocID)
	if meta.Status != 0 {
		addToBitmap(idx.idxStatus, meta.Status, meta.DocID)
	}
	for _, name := range meta.HeaderNamesLower {
		addToBitmap(idx.idxHeaderName, name, meta.DocID)
	}
}

// settle re-indexes a pending document whose record has since completed.
// The metadata is replaced, not mutated, so readers holding the old pointer
// see a consistent value. Callers hold mu.
func (idx *Indexer) settle(docID uint32, rec *recorder.Record) {
	meta := FromRecord(rec)
	meta.DocID = docID
	if bm, ok := idx.idxState[recorder.StatePending]; ok {
		bm.Remove(docID)
	}
	idx.docToMeta[docID] = meta
	idx.indexOutcome(meta)
}

// GetMeta retrieves metadata by docID.
func (idx *Indexer) GetMeta(docID uint32) *RecordMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if int(docID) >= len(idx.docToMeta) {
		return nil
	}
	return idx.docToMeta[docID]
}

// GetMetaByRecordID retrieves metadata by record id.
func (idx *Indexer) GetMetaByRecordID(recordID string) *RecordMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docID, exists := idx.idToDoc[recordID]
	if !exists {
		return nil
	}
	return idx.docToMeta[docID]
}

// AllDocIDs returns a bitmap of all indexed document IDs.
func (idx *Indexer) AllDocIDs() *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bm := roaring.New()
	bm.AddRange(0, uint64(idx.nextDocID))
	return bm
}

// DocCount returns the number of indexed documents.
func (idx *Indexer) DocCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docToMeta)
}

// PendingCount returns how many indexed records were pending at the last refresh.
func (idx *Indexer) PendingCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return int(idx.pending.GetCardinality())
}

// GetBitmapForHost returns the bitmap for a host pattern.
// Supports wildcard prefix: "*.example.com" matches "example.com"
// and all subdomains like "api.example.com", "www.example.com".
// Without the prefix, matches exactly.
func (idx *Indexer) GetBitmapForHost(host string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !strings.HasPrefix(host, "*.") {
		return clone(idx.idxHost[host])
	}

	baseDomain := host[2:]
	if baseDomain == "" {
		return nil
	}

	suffix := "." + baseDomain
	result := roaring.New()
	for key, bm := range idx.idxHost {
		hostname, _, _ := strings.Cut(key, ":")
		if hostname == baseDomain || strings.HasSuffix(hostname, suffix) {
			result.Or(bm)
		}
	}
	if result.IsEmpty() {
		return nil
	}
	return result
}

// GetBitmapForMethod returns the bitmap for an HTTP method.
func (idx *Indexer) GetBitmapForMethod(method string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return clone(idx.idxMethod[strings.ToUpper(method)])
}

// GetBitmapForState returns the bitmap for a record state.
func (idx *Indexer) GetBitmapForState(state recorder.State) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return clone(idx.idxState[state])
}

// GetBitmapForStatus returns the bitmap for an HTTP status code.
func (idx *Indexer) GetBitmapForStatus(status int) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return clone(idx.idxStatus[status])
}

// GetBitmapForHeaderName returns the bitmap for a header name.
func (idx *Indexer) GetBitmapForHeaderName(name string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return clone(idx.idxHeaderName[strings.ToLower(name)])
}

// GetBitmapForToken returns the bitmap for a URL token.
func (idx *Indexer) GetBitmapForToken(token string) *roaring.Bitmap {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return clone(idx.idxToken[token])
}

// LastSyncTime returns when the index last refreshed.
func (idx *Indexer) LastSyncTime() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state.lastSyncAt
}

// clone copies a bitmap so callers can combine it outside the lock.
func clone(bm *roaring.Bitmap) *roaring.Bitmap {
	if bm == nil {
		return nil
	}
	return bm.Clone()
}

// addToBitmap adds a docID to a keyed bitmap index.
func addToBitmap[K comparable](index map[K]*roaring.Bitmap, key K, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}
