// Package api exposes the proxy's HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openfga-tools/dedup-proxy/pkg/dedup"
	"github.com/openfga-tools/dedup-proxy/pkg/proxy/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	User     string         `json:"user"`
	Relation string         `json:"relation"`
	Object   string         `json:"object"`
	Context  map[string]any `json:"context,omitempty"`
}

// Handler routes authorization checks through the deduplication engine.
type Handler struct {
	log      logrus.FieldLogger
	engine   *dedup.Deduplicator
	upstream *upstream.Client

	metrics *Metrics
}

// NewHandler creates a Handler with metrics on the default registerer.
func NewHandler(log logrus.FieldLogger, engine *dedup.Deduplicator, client *upstream.Client) *Handler {
	return NewHandlerWithRegisterer(log, engine, client, prometheus.DefaultRegisterer)
}

// NewHandlerWithRegisterer creates a Handler with metrics on a custom
// registerer. Pass nil to skip metrics registration (useful for tests).
func NewHandlerWithRegisterer(log logrus.FieldLogger, engine *dedup.Deduplicator, client *upstream.Client, registerer prometheus.Registerer) *Handler {
	return &Handler{
		log:      log.WithField("component", "api"),
		engine:   engine,
		upstream: client,
		metrics:  NewMetricsWithRegisterer("dedup_proxy_api", registerer),
	}
}

// Register attaches the handler's routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/check", h.handleCheck)
	mux.HandleFunc("/v1/stats", h.handleStats)
	mux.HandleFunc("/v1/stats/reset", h.handleStatsReset)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if req.User == "" || req.Relation == "" || req.Object == "" {
		http.Error(w, "user, relation and object are required", http.StatusBadRequest)

		return
	}

	params := map[string]any{
		"user":     req.User,
		"relation": req.Relation,
		"object":   req.Object,
	}
	if len(req.Context) > 0 {
		params["context"] = req.Context
	}

	decision, err := dedup.Execute(r.Context(), h.engine, "check", params, func(ctx context.Context) (upstream.Decision, error) {
		return h.upstream.Check(ctx, upstream.TupleKey{
			User:     req.User,
			Relation: req.Relation,
			Object:   req.Object,
		}, req.Context)
	})
	if err != nil {
		h.log.WithError(err).WithField("object", req.Object).Error("check failed")

		status := http.StatusBadGateway
		if errors.Is(err, dedup.ErrWaitTimeout) {
			status = http.StatusGatewayTimeout
		}

		http.Error(w, err.Error(), status)

		return
	}

	h.metrics.AddCheck(decision.Allowed)

	h.writeJSON(w, decision)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	h.writeJSON(w, h.engine.Stats())
}

func (h *Handler) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	h.engine.ResetStats()

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("failed to write response")
	}
}
