package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openfga-tools/dedup-proxy/pkg/dedup/store"
	"github.com/sirupsen/logrus"
)

const inFlightSuffix = ":inflight"

func markerKey(key string) string {
	return key + inFlightSuffix
}

// inflightEntry tracks one execution owned by this process. done is closed
// when the execution resolves; result and err are valid only after that.
type inflightEntry struct {
	startedAt time.Time
	done      chan struct{}
	result    []byte
	err       error
}

// inflightRegistry tracks running executions in a local map, mirrored by a
// tokened marker in the shared store so other processes can observe them.
// The marker is best-effort coalescing, not a lock: two processes can still
// both miss it and execute, which costs duplicate work, never correctness.
type inflightRegistry struct {
	log       logrus.FieldLogger
	store     store.Store
	markerTTL time.Duration

	mu      sync.Mutex
	entries map[string]*inflightEntry
}

func newInflightRegistry(log logrus.FieldLogger, st store.Store, markerTTL time.Duration) *inflightRegistry {
	return &inflightRegistry{
		log:       log,
		store:     st,
		markerTTL: markerTTL,
		entries:   make(map[string]*inflightEntry),
	}
}

// lookup returns the local entry for key, if any, and whether an execution is
// in flight either locally or in the shared store.
func (r *inflightRegistry) lookup(ctx context.Context, key string) (*inflightEntry, bool) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()

	if ok {
		return entry, true
	}

	present, err := r.store.Has(ctx, markerKey(key))
	if err != nil {
		r.log.WithError(err).WithField("key", key).Warn("in-flight marker lookup failed")

		return nil, false
	}

	return nil, present
}

// hasMarker reports whether the shared in-flight marker for key still exists.
func (r *inflightRegistry) hasMarker(ctx context.Context, key string) (bool, error) {
	return r.store.Has(ctx, markerKey(key))
}

// begin marks key in flight and returns the new entry with true when this
// caller owns the execution. When an execution already exists it returns the
// local entry (nil for a foreign one) with false.
func (r *inflightRegistry) begin(ctx context.Context, key string) (*inflightEntry, bool) {
	r.mu.Lock()

	if entry, ok := r.entries[key]; ok {
		r.mu.Unlock()

		return entry, false
	}

	entry := &inflightEntry{
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	r.entries[key] = entry
	r.mu.Unlock()

	token := []byte(uuid.NewString())

	if atomicStore, ok := r.store.(store.AtomicStore); ok {
		won, err := atomicStore.PutIfAbsent(ctx, markerKey(key), token, r.markerTTL)
		if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("failed to write in-flight marker")

			return entry, true
		}

		if !won {
			// Another process claimed the slot between our check and mark.
			// Drop the local entry; any caller already holding it falls back
			// to polling the shared store.
			r.mu.Lock()
			delete(r.entries, key)
			r.mu.Unlock()

			return nil, false
		}

		return entry, true
	}

	if err := r.store.Put(ctx, markerKey(key), token, r.markerTTL); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("failed to write in-flight marker")
	}

	return entry, true
}

// finish resolves the execution for key: local waiters are released via the
// entry's done channel and the shared marker is forgotten. Called on success
// and on failure, so a marker is never leaked past an error.
func (r *inflightRegistry) finish(ctx context.Context, key string, result []byte, err error) {
	r.mu.Lock()
	entry := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if entry != nil {
		entry.result = result
		entry.err = err
		close(entry.done)

		if elapsed := time.Since(entry.startedAt); elapsed > r.markerTTL {
			r.log.WithField("key", key).WithField("elapsed", elapsed).
				Warn("execution outlived its in-flight marker")
		}
	}

	if ferr := r.store.Forget(ctx, markerKey(key)); ferr != nil {
		r.log.WithError(ferr).WithField("key", key).Warn("failed to clear in-flight marker")
	}
}

// clear empties the local map. Shared markers and cached results are left to
// their TTLs; waiters holding dropped entries resolve via store polling.
func (r *inflightRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*inflightEntry)
}
