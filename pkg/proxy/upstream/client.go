// Package upstream implements the client for the relationship-based
// authorization service the proxy fronts.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
)

var (
	// ErrConfigRequired is returned when config is nil
	ErrConfigRequired = errors.New("config is required")
)

// TupleKey identifies a single relationship to check.
type TupleKey struct {
	User     string `json:"user"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Resolution string `json:"resolution,omitempty"`
}

type checkRequest struct {
	TupleKey             TupleKey       `json:"tuple_key"`
	AuthorizationModelID string         `json:"authorization_model_id,omitempty"`
	Context              map[string]any `json:"context,omitempty"`
}

// Client talks to the upstream check API over HTTP.
type Client struct {
	log    logrus.FieldLogger
	config *Config

	client *http.Client
}

// NewClient creates a new upstream client.
func NewClient(log logrus.FieldLogger, config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		log:    log.WithField("component", "upstream"),
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Check runs one authorization check, retrying transient failures with a
// fixed delay. The last error is returned when all attempts fail.
func (c *Client) Check(ctx context.Context, tuple TupleKey, checkContext map[string]any) (Decision, error) {
	var decision Decision

	err := retry.Do(
		func() error {
			d, err := c.check(ctx, tuple, checkContext)
			if err != nil {
				c.log.WithError(err).WithField("object", tuple.Object).Debug("check attempt failed")

				return err
			}

			decision = d

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.RetryAttempts),
		retry.Delay(c.config.RetryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)

	return decision, err
}

func (c *Client) check(ctx context.Context, tuple TupleKey, checkContext map[string]any) (Decision, error) {
	body, err := json.Marshal(checkRequest{
		TupleKey:             tuple,
		AuthorizationModelID: c.config.AuthorizationModelID,
		Context:              checkContext,
	})
	if err != nil {
		return Decision{}, err
	}

	url := fmt.Sprintf("%s/stores/%s/check", c.config.Endpoint, c.config.StoreID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Decision{}, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Decision{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Decision{}, fmt.Errorf("check failed: %s", resp.Status)
	}

	var decision Decision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return Decision{}, fmt.Errorf("decode check response: %w", err)
	}

	return decision, nil
}
