// Package dedup coalesces concurrent identical requests and caches their
// results, using a shared key/value store as the only cross-process
// coordination primitive. It deliberately provides best-effort coalescing,
// not mutual exclusion: two callers can still race past the in-flight check
// and execute the same operation twice.
package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-co-op/gocron"
	"github.com/openfga-tools/dedup-proxy/pkg/dedup/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	// ErrConfigRequired is returned when config is nil
	ErrConfigRequired = errors.New("config is required")
	// ErrStoreRequired is returned when no store is supplied
	ErrStoreRequired = errors.New("store is required")
)

// Deduplicator is the engine's public face. It owns its local in-flight map
// and statistics; the shared store is externally owned and may be mutated by
// other processes at any time.
type Deduplicator struct {
	log    logrus.FieldLogger
	config *Config

	store    store.Store
	keys     *KeyGenerator
	registry *inflightRegistry
	stats    *statsTracker
	codec    Codec

	metrics *Metrics
	crons   *gocron.Scheduler
}

// New creates a Deduplicator with metrics on the default prometheus registerer.
func New(log logrus.FieldLogger, config *Config, st store.Store) (*Deduplicator, error) {
	return NewWithRegisterer(log, config, st, prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a Deduplicator with metrics on a custom
// registerer. Pass nil to skip metrics registration (useful for tests).
func NewWithRegisterer(log logrus.FieldLogger, config *Config, st store.Store, registerer prometheus.Registerer) (*Deduplicator, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if st == nil {
		return nil, ErrStoreRequired
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := log.WithField("component", "dedup")

	return &Deduplicator{
		log:      logger,
		config:   config,
		store:    st,
		keys:     NewKeyGenerator(config.Prefix),
		registry: newInflightRegistry(logger, st, config.InFlightTTL),
		stats:    &statsTracker{},
		codec:    JSONCodec,
		metrics:  NewMetricsWithRegisterer("dedup_proxy_engine", registerer),
	}, nil
}

// Start begins the engine's background processes (periodic metrics export).
func (d *Deduplicator) Start(ctx context.Context) error {
	return d.startCrons(ctx)
}

// Stop stops the engine's background processes.
func (d *Deduplicator) Stop() {
	d.stopCrons()
}

// Execute runs fn for the given operation and parameters, deduplicating
// against concurrent and recent identical calls. A cached result is returned
// without invoking fn; an equivalent in-flight execution is waited on and its
// outcome shared. Results must round-trip through the engine's codec; an
// unencodable result fails the call and nothing is cached. Errors from fn are
// propagated unchanged and never cached.
func Execute[T any](ctx context.Context, d *Deduplicator, operation string, params map[string]any, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if !d.config.Enabled {
		return fn(ctx)
	}

	raw, err := d.execute(ctx, operation, params, func(ctx context.Context) ([]byte, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		data, err := d.codec.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}

		return data, nil
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := d.codec.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode cached result: %w", err)
	}

	return out, nil
}

// execute is the untyped core: the codec work happens in Execute, everything
// below the key moves opaque bytes.
func (d *Deduplicator) execute(ctx context.Context, operation string, params map[string]any, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	d.stats.recordRequest()

	key := d.keys.Generate(operation, params)

	data, found, err := d.store.Get(ctx, key)
	if err != nil {
		d.log.WithError(err).WithField("key", key).Warn("result cache lookup failed")
	} else if found {
		d.stats.recordHit()

		return data, nil
	}

	d.stats.recordMiss()

	if entry, inFlight := d.registry.lookup(ctx, key); inFlight {
		d.stats.recordDeduplicated()

		return d.waitForInFlight(ctx, key, entry)
	}

	entry, owned := d.registry.begin(ctx, key)
	if !owned {
		d.stats.recordDeduplicated()

		return d.waitForInFlight(ctx, key, entry)
	}

	result, err := fn(ctx)
	if err != nil {
		d.registry.finish(ctx, key, nil, err)

		return nil, err
	}

	if perr := d.store.Put(ctx, key, result, d.config.TTL); perr != nil {
		d.log.WithError(perr).WithField("key", key).Warn("failed to cache result")
	}

	d.registry.finish(ctx, key, result, nil)

	return result, nil
}

// Stats returns a snapshot of the engine's counters and derived rates.
func (d *Deduplicator) Stats() Stats {
	return d.stats.snapshot()
}

// ResetStats zeroes all counters. Cached results and in-flight state are
// left untouched.
func (d *Deduplicator) ResetStats() {
	d.stats.reset()
}

// Clear empties the local in-flight map. It is per-instance and cheap:
// shared-store entries and markers are left to expire by TTL. Use Forget for
// targeted removal of a shared entry.
func (d *Deduplicator) Clear() {
	d.registry.clear()
}

// Forget removes the cached result and in-flight marker for one
// operation/parameter pair from the shared store.
func (d *Deduplicator) Forget(ctx context.Context, operation string, params map[string]any) error {
	key := d.keys.Generate(operation, params)

	if err := d.store.Forget(ctx, key); err != nil {
		return err
	}

	return d.store.Forget(ctx, markerKey(key))
}
