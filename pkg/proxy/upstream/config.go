package upstream

import (
	"errors"
	"time"
)

type Config struct {
	// Endpoint is the base URL of the authorization service, e.g.
	// http://localhost:8081.
	Endpoint string `yaml:"endpoint"`

	// StoreID selects the authorization store checks run against.
	StoreID string `yaml:"storeId"`

	// AuthorizationModelID optionally pins checks to one model version.
	AuthorizationModelID string `yaml:"authorizationModelId"`

	Timeout       time.Duration `yaml:"timeout" default:"10s"`
	RetryAttempts uint          `yaml:"retryAttempts" default:"3"`
	RetryInterval time.Duration `yaml:"retryInterval" default:"250ms"`
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}

	if c.StoreID == "" {
		return errors.New("storeId is required")
	}

	return nil
}
