// Package dedupe tracks the content last accepted for each record id so
// that exact resubmissions are acknowledged without being persisted twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds memory when no size is configured.
const defaultMaxSize = 50000

// Deduper records the content fingerprint last accepted under each key.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was accepted with the same
	// fingerprint. It returns true for an exact resubmission; otherwise it
	// records fingerprint as the latest content of key and returns false.
	SeenAndRecord(ctx context.Context, key, fingerprint string) bool

	// Unrecord forgets key if its latest fingerprint is still fingerprint, so
	// a record rejected after the check, for example by a full queue, can be
	// submitted again without erasing a newer version.
	Unrecord(ctx context.Context, key, fingerprint string)

	Size() int64
}

// Key builds the dedupe key of a record. Ids are only unique per kind.
func Key(kind, id string) string {
	return kind + ":" + id
}

type entry struct {
	key         string
	fingerprint string
}

// inMemoryDeduper keeps keys in acceptance order. In bounded mode the oldest
// key is evicted once maxSize is reached; maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is the least recently accepted key
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		e := el.Value.(*entry)
		if e.fingerprint == fingerprint {
			return true
		}
		e.fingerprint = fingerprint
		d.order.MoveToBack(el)
		return false
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(&entry{key: key, fingerprint: fingerprint})
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key, fingerprint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[key]
	if !ok || el.Value.(*entry).fingerprint != fingerprint {
		return
	}
	d.order.Remove(el)
	delete(d.seen, key)
	d.size.Add(-1)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*entry).key)
	d.size.Add(-1)
}

// Size returns the current number of keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
