package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/threshold/internal/cache"
	"github.com/tensorplex-labs/threshold/internal/config"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/metrics"
	"github.com/tensorplex-labs/threshold/internal/service"
	"github.com/tensorplex-labs/threshold/internal/threshold"
	"github.com/tensorplex-labs/threshold/internal/utils/logger"
	"github.com/tensorplex-labs/threshold/pkg/schnitz"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	method, err := threshold.ParseMethod(cfg.Threshold.Method)
	if err != nil {
		return err
	}

	var predictor meta.Predictor
	if cfg.Threshold.MetaModel != "" {
		model, err := meta.Load(ctx, cfg.Threshold.MetaModel)
		if err != nil {
			return fmt.Errorf("failed to load meta model: %w", err)
		}
		predictor = model
	}

	m := metrics.New()
	results, err := newCache(cfg.Redis, m)
	if err != nil {
		return err
	}
	defer results.Close()

	svc := service.New(method, cfg.Threshold.Options(), predictor, results, m)
	log.Info().Stringer("service", svc).Msg("Threshold service ready")

	server := schnitz.NewServer(&schnitz.ServerConfig{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		BodyLimit: cfg.Server.BodySizeLimit,
	})
	server.ServeMetrics(prometheus.DefaultGatherer)
	schnitz.ServeRoute(server, svc.Handler())
	schnitz.ServeGet(server, "/methods", func(*fiber.Ctx) ([]schnitz.MethodInfo, error) {
		return service.Methods(), nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newCache(cfg config.RedisConfig, m *metrics.Metrics) (*cache.Cache, error) {
	if !cfg.Enabled {
		log.Info().Int("entries", cfg.MemoryEntries).Msg("Caching results in memory")
		return cache.New(cache.NewMemory(cfg.MemoryEntries, cfg.TTL), cfg.TTL, m.ObserveCache), nil
	}

	store, err := cache.NewRedis(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("Caching results in redis")
	return cache.New(store, cfg.TTL, m.ObserveCache), nil
}
