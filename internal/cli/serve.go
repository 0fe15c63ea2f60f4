package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/config"
	httpAdapter "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/observability"
)

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	ConfigPath string
	// Addr overrides the configured listen address.
	Addr  string
	Debug bool
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	level := cfg.LogLevel
	if opts.Debug {
		level = "debug"
	}
	logger, err := createServerLogger(cfg, level)
	if err != nil {
		return err
	}

	store, closeStore, err := cfg.Store.OpenStore()
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("snapshot store close failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	serverOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
	if cfg.HTTP.Metrics {
		serverOpts = append(serverOpts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	server := httpAdapter.NewServer(
		func(product, owner string) (*funnel.Funnel, error) {
			scoped := cfg
			scoped.Owner = owner
			return createFunnel(scoped, product, store, logger, metrics.Hooks())
		},
		serverOpts...,
	)
	defer server.Close()

	srv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     httpAdapter.NewHandler(server),
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("funnel server listening", "addr", srv.Addr, "store", cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		logger.Info("funnel server stopped gracefully")
		return nil
	}
}
