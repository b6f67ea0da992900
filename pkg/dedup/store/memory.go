package store

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is a process-local Store backed by a TTL cache. It satisfies the
// Store contract for single-process deployments and for tests; multi-process
// coordination needs a store that is actually shared.
type Memory struct {
	items *ttlcache.Cache[string, []byte]

	// serializes check-and-set for PutIfAbsent
	mu sync.Mutex
}

// NewMemory creates a new in-memory store. Entries never have their TTL
// extended by reads.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		items: ttlcache.New(
			ttlcache.WithTTL[string, []byte](defaultTTL),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Start begins the background expiry process.
func (m *Memory) Start() {
	go m.items.Start()
}

// Stop stops the background expiry process.
func (m *Memory) Stop() {
	m.items.Stop()
}

// Get returns the value for key, or false when absent or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, false, nil
	}

	return item.Value(), true, nil
}

// Put stores value under key for ttl.
func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.items.Set(key, value, ttl)

	return nil
}

// Has reports whether key holds an unexpired value.
func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	return m.items.Get(key) != nil, nil
}

// Forget removes key.
func (m *Memory) Forget(_ context.Context, key string) error {
	m.items.Delete(key)

	return nil
}

// PutIfAbsent stores value under key only when the key is absent.
func (m *Memory) PutIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.items.Get(key) != nil {
		return false, nil
	}

	m.items.Set(key, value, ttl)

	return true, nil
}
