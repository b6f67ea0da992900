// Package proxy wires the deduplication engine, the upstream authorization
// client and the HTTP surface into a runnable sidecar.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openfga-tools/dedup-proxy/pkg/dedup"
	"github.com/openfga-tools/dedup-proxy/pkg/dedup/store"
	"github.com/openfga-tools/dedup-proxy/pkg/proxy/api"
	"github.com/openfga-tools/dedup-proxy/pkg/proxy/upstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Proxy struct {
	log *logrus.Logger
	Cfg Config

	store   *store.Memory
	engine  *dedup.Deduplicator
	handler *api.Handler
}

func New(log *logrus.Logger, conf *Config) *Proxy {
	if err := conf.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	st := store.NewMemory(conf.Dedup.TTL)

	engine, err := dedup.New(log, &conf.Dedup, st)
	if err != nil {
		log.Fatalf("failed to create dedup engine: %s", err)
	}

	client, err := upstream.NewClient(log, &conf.Upstream)
	if err != nil {
		log.Fatalf("failed to create upstream client: %s", err)
	}

	p := &Proxy{
		Cfg:     *conf,
		log:     log,
		store:   st,
		engine:  engine,
		handler: api.NewHandler(log, engine, client),
	}

	log.WithField("upstream", conf.Upstream.Endpoint).Info("initialized proxy")

	return p
}

func (p *Proxy) Start(ctx context.Context) error {
	p.log.Infof("starting dedup proxy")

	p.store.Start()

	if err := p.engine.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	p.handler.Register(mux)

	apiServer := &http.Server{
		Addr:              p.Cfg.ListenAddr,
		ReadHeaderTimeout: 15 * time.Second,
		Handler:           mux,
	}

	metricsServer := &http.Server{
		Addr:              p.Cfg.MetricsAddr,
		ReadHeaderTimeout: 15 * time.Second,
		Handler:           promhttp.Handler(),
	}

	errg, _ := errgroup.WithContext(ctx)

	errg.Go(func() error {
		p.log.Infof("serving api at %s", p.Cfg.ListenAddr)

		return apiServer.ListenAndServe()
	})

	errg.Go(func() error {
		p.log.Infof("serving metrics at %s", p.Cfg.MetricsAddr)

		return metricsServer.ListenAndServe()
	})

	cancel := make(chan os.Signal, 1)
	signal.Notify(cancel, syscall.SIGTERM, syscall.SIGINT)

	sig := <-cancel
	p.log.Printf("Caught signal: %v", sig)

	p.log.Printf("Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		p.log.Printf("failed to stop api server: %s", err)
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		p.log.Printf("failed to stop metrics server: %s", err)
	}

	p.engine.Stop()
	p.store.Stop()

	if err := errg.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
