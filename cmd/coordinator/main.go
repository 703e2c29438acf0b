package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/coordinator/api"
	"github.com/fedstack/tensordb/coordinator/middleware"
	pkgerrors "github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/pkg/prometheus"
	"github.com/fedstack/tensordb/store"
)

const (
	svcName = "coordinator"
	pathEnv = ".env"
)

type envConfig struct {
	LogLevel   string `env:"TENSORDB_LOG_LEVEL" envDefault:"info"`
	InstanceID string `env:"TENSORDB_INSTANCE_ID"`
	HTTPHost   string `env:"TENSORDB_HTTP_HOST"  envDefault:"localhost"`
	HTTPPort   string `env:"TENSORDB_HTTP_PORT"  envDefault:"7070"`

	// Eviction policy: a negative window disables the background sweep.
	EvictionWindow   int           `env:"TENSORDB_EVICTION_WINDOW"   envDefault:"-1"`
	EvictionInterval time.Duration `env:"TENSORDB_EVICTION_INTERVAL" envDefault:"1m"`

	// Geometric median convergence policy.
	GeomedTolerance     float64 `env:"TENSORDB_GEOMED_TOLERANCE"      envDefault:"1e-6"`
	GeomedMaxIterations int     `env:"TENSORDB_GEOMED_MAX_ITERATIONS" envDefault:"100"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	tracer := noop.NewTracerProvider().Tracer(svcName)

	registry := aggregation.NewRegistry(
		aggregation.WithGeometricMedianConfig(aggregation.GeometricMedianConfig{
			Tolerance:     cfg.GeomedTolerance,
			MaxIterations: cfg.GeomedMaxIterations,
		}),
	)

	tensors := store.New()
	svc := coordinator.NewService(tensors, registry, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	srv := &http.Server{
		Addr:    cfg.HTTPHost + ":" + cfg.HTTPPort,
		Handler: api.MakeHandler(svc, logger, cfg.InstanceID),
	}

	g.Go(func() error {
		logger.Info("Coordinator service started",
			slog.String("instance_id", cfg.InstanceID),
			slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return evictionLoop(ctx, svc, cfg.EvictionWindow, cfg.EvictionInterval, logger)
	})

	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			logger.Info("Shutting down coordinator", slog.String("signal", s.String()))
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()

			return srv.Shutdown(shutdownCtx)
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

// evictionLoop periodically applies the sliding-window retention policy so
// the table cannot grow without bound across rounds.
func evictionLoop(ctx context.Context, svc coordinator.Service, window int, interval time.Duration, logger *slog.Logger) error {
	if window < 0 {
		logger.Info("Eviction disabled")

		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := svc.EvictTensors(ctx, window)
			switch {
			case errors.Is(err, pkgerrors.ErrEmptyStore):
				logger.Debug("Eviction skipped, store is empty")
			case err != nil:
				logger.Warn("Eviction failed", slog.Any("error", err))
			case removed > 0:
				logger.Info("Evicted stale rounds", slog.Int("removed", removed), slog.Int("window", window))
			}
		}
	}
}
