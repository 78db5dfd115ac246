// Package dedupe tracks game ids so each game is processed at most once per run.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen game ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int) bool

	// Unrecord forgets an id so a later attempt can process it.
	Unrecord(ctx context.Context, id int)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int
}

// inMemoryDeduper keeps ids in a map. In bounded mode the oldest ids are
// evicted first, tracked by a FIFO ring.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int]uint64 // id -> sequence of its live record
	order   []entry        // records in insertion order, bounded mode only
	head    int
	next    uint64
	maxSize int // 0 or negative = unbounded
}

// entry is one record in the ring. It is stale once its id was unrecorded
// or recorded again under a later sequence.
type entry struct {
	id  int
	seq uint64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int]uint64)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.next++
	if d.maxSize > 0 {
		d.evictOldest()
		d.order = append(d.order, entry{id: id, seq: d.next})
	}
	d.seen[id] = d.next
	return false
}

// evictOldest drops ids from the front of the ring until there is room.
// Stale entries are skipped. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.seen) >= d.maxSize && d.head < len(d.order) {
		e := d.order[d.head]
		d.head++
		if seq, ok := d.seen[e.id]; ok && seq == e.seq {
			delete(d.seen, e.id)
		}
	}
	if d.head > 0 && d.head*2 >= len(d.order) {
		d.order = append(d.order[:0], d.order[d.head:]...)
		d.head = 0
	}
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[int]uint64)
	d.order = d.order[:0]
	d.head = 0
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
