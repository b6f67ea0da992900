package dedup

import (
	"errors"
	"time"
)

type Config struct {
	// Enabled turns the engine off entirely when false: callbacks run
	// directly with no caching and no bookkeeping.
	Enabled bool `yaml:"enabled" default:"true"`

	// TTL is how long a successful result stays cached.
	TTL time.Duration `yaml:"ttl" default:"60s"`

	// InFlightTTL bounds both the shared in-flight marker lifetime and how
	// long a caller waits on someone else's execution.
	InFlightTTL time.Duration `yaml:"inFlightTTL" default:"5s"`

	// PollInterval is the waiter's shared-store polling interval.
	PollInterval time.Duration `yaml:"pollInterval" default:"10ms"`

	// Prefix namespaces every key the engine writes to the shared store.
	Prefix string `yaml:"prefix" default:"openfga_dedup"`
}

func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return errors.New("ttl must be positive")
	}

	if c.InFlightTTL <= 0 {
		return errors.New("inFlightTTL must be positive")
	}

	if c.PollInterval <= 0 {
		return errors.New("pollInterval must be positive")
	}

	if c.Prefix == "" {
		return errors.New("prefix is required")
	}

	return nil
}
