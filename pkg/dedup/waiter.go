package dedup

import (
	"context"
	"time"
)

// waitForInFlight blocks until the execution owning key resolves, one way or
// another. A local execution signals through its entry's done channel; a
// foreign one is observed by polling the shared store: its result appearing
// means success, its marker vanishing without a result means it failed.
// Waiting is bounded by the in-flight TTL.
func (d *Deduplicator) waitForInFlight(ctx context.Context, key string, entry *inflightEntry) ([]byte, error) {
	deadline := time.NewTimer(d.config.InFlightTTL)
	defer deadline.Stop()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	var done <-chan struct{}
	if entry != nil {
		done = entry.done
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-done:
			if entry.err != nil {
				return nil, ErrInFlightFailed
			}

			return entry.result, nil

		case <-deadline.C:
			return nil, ErrWaitTimeout

		case <-ticker.C:
			data, found, err := d.store.Get(ctx, key)
			if err != nil {
				d.log.WithError(err).WithField("key", key).Warn("result poll failed")

				continue
			}

			if found {
				return data, nil
			}

			present, err := d.registry.hasMarker(ctx, key)
			if err != nil {
				continue
			}

			if !present {
				return nil, ErrInFlightFailed
			}
		}
	}
}
