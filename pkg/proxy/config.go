package proxy

import (
	"fmt"

	"github.com/openfga-tools/dedup-proxy/pkg/dedup"
	"github.com/openfga-tools/dedup-proxy/pkg/proxy/upstream"
)

type Config struct {
	LoggingLevel string          `yaml:"logging" default:"info"`
	ListenAddr   string          `yaml:"listenAddr" default:":8080"`
	MetricsAddr  string          `yaml:"metricsAddr" default:":9090"`
	Upstream     upstream.Config `yaml:"upstream"`
	Dedup        dedup.Config    `yaml:"dedup"`
}

func (c *Config) Validate() error {
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	if err := c.Dedup.Validate(); err != nil {
		return fmt.Errorf("dedup: %w", err)
	}

	return nil
}
