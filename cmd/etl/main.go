package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/notam-airspace-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/notam-airspace-etl/internal/adapter/kafka"
	"github.com/couchcryptid/notam-airspace-etl/internal/adapter/postgres"
	"github.com/couchcryptid/notam-airspace-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/notam-airspace-etl/internal/config"
	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
	"github.com/couchcryptid/notam-airspace-etl/internal/pipeline"
	"github.com/couchcryptid/notam-airspace-etl/internal/projector"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open airspace store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("airspace store opened", "driver", cfg.StoreDriver)

	clock := clockwork.NewRealClock()
	proj := projector.New(cfg.GeometryCacheSize, metrics)
	parser := domain.NewParser(domain.WithSourceName(cfg.SourceName), domain.WithClock(clock))
	svc := pipeline.NewService(parser, store, proj, logger, metrics,
		pipeline.WithServiceClock(clock),
		pipeline.WithDefaultFIR(cfg.DefaultFIR),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, proj, logger)
	transformer := pipeline.NewTransformer(parser)

	p := pipeline.New(reader, transformer, svc, writer, logger, metrics, cfg.BatchSize)
	sweeper := pipeline.NewSweeper(svc, cfg.CleanupInterval, clock, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	// Start expired-restriction sweeper.
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.Error("sweeper error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// openStore opens the store selected by STORE_DRIVER and returns it with its
// close function.
func openStore(ctx context.Context, cfg *config.Config) (domain.AirspaceStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreDriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
