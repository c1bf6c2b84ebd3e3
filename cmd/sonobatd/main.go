// Command sonobatd is the attack-surface knowledge graph server. It
// builds the in-memory graph store, configures logging for the store,
// evaluator and ingestion packages, resolves the evaluator bounds from
// the config file, and serves a minimal gRPC health/reflection surface.
// No ingestion or query requests are served over that surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"attacksurface/internal/config"
	"attacksurface/internal/datalog/eval"
	"attacksurface/internal/kgraph/ingest"
	"attacksurface/internal/kgraph/rpcshim"
	"attacksurface/internal/kgraph/store"
)

func main() {
	logger := slog.Default()
	if err := run(logger); err != nil {
		logger.Error("sonobatd startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		logger.Info("no sonobatd.yaml found, using defaults", "reason", err)
		cfg = &config.Config{}
	}

	dbPath := cfg.ResolvedDBPath()
	logger.Info("starting sonobatd", "db_path", dbPath)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("sonobatd"),
		)),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	s := store.New()
	s.SetLogger(logger)
	eval.SetLogger(logger)
	ingest.SetLogger(logger)
	stats := s.Stats()
	logger.Info("graph store initialized", "nodes", stats.NodeCount, "edges", stats.EdgeCount)

	bounds := boundsFromConfig(cfg)
	logger.Info("datalog bounds configured",
		"max_iterations", bounds.MaxIterations, "max_tuples", bounds.MaxTuples,
		"max_rules", bounds.MaxRules, "timeout", bounds.Timeout)

	health, err := rpcshim.New("127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("start health surface: %w", err)
	}
	logger.Info("health/reflection surface listening", "addr", health.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := health.Serve(); err != nil {
			errCh <- fmt.Errorf("health surface: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	health.SetServing(false)
	health.Stop()
	logger.Info("sonobatd stopped")
	return nil
}

// boundsFromConfig applies the config file's overrides on top of the
// evaluator's defaults.
func boundsFromConfig(cfg *config.Config) eval.Bounds {
	bounds := eval.DefaultBounds()
	if cfg.Bounds == nil {
		return bounds
	}
	if cfg.Bounds.MaxIterations > 0 {
		bounds.MaxIterations = cfg.Bounds.MaxIterations
	}
	if cfg.Bounds.MaxTuples > 0 {
		bounds.MaxTuples = cfg.Bounds.MaxTuples
	}
	if cfg.Bounds.MaxRules > 0 {
		bounds.MaxRules = cfg.Bounds.MaxRules
	}
	bounds.Timeout = cfg.Bounds.GetTimeout(bounds.Timeout)
	return bounds
}
