package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"officebook/internal/api"
	"officebook/internal/config"
	"officebook/internal/database"
	"officebook/internal/domain"
	"officebook/internal/events"
	"officebook/internal/export"
	"officebook/internal/logging"
	"officebook/internal/metrics"
	"officebook/internal/repository"
	"officebook/internal/service"
	"officebook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := domain.SystemClock{}
	bus := events.NewEventBus()
	dedup := initDedupStore(redisClient, &logger)

	reportBuilder := export.NewReportBuilder(db, clock, cfg.Exports.Path, cfg.Booking.ReportRangeDays, &logger)
	reportWorker := worker.NewReportWorker(db, reportBuilder, redisClient, worker.RetryPolicy{}, &logger)
	go reportWorker.Start(ctx)

	bookings := service.NewBookingService(db, bus, reportWorker, clock, cfg.Booking.MaxBookingDays, &logger)
	offices := service.NewOfficeService(db, clock, &logger)
	memberships := service.NewMembershipService(db, bus, clock, &logger)
	payments := service.NewPaymentService(db, dedup, bus, clock, &logger)

	subscribeEventLogging(bus, &logger)

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, clock, &logger)
	go backup.Start(ctx)

	httpServer := api.NewHTTPServer(cfg.API, offices, bookings, memberships, payments, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.SeedOffices(context.Background(), cfg.Offices); err != nil {
		logger.Error().Err(err).Msg("seed offices")
		return nil, err
	}
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initDedupStore prefers redis-backed webhook dedup with in-memory
// failover; without redis it runs in-memory only.
func initDedupStore(redisClient *redis.Client, logger *zerolog.Logger) domain.DedupStore {
	memory := repository.NewMemoryDedupStore()
	if redisClient == nil {
		logger.Warn().Msg("payment event dedup is in-memory only")
		return memory
	}
	return repository.NewFailoverDedupStore(repository.NewRedisDedupStore(redisClient), memory, logger)
}

func subscribeEventLogging(bus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingPaymentRejected,
		events.EventMembershipPurchased,
		events.EventMembershipActivated,
	} {
		bus.Subscribe(eventType, func(event *events.Event) error {
			logger.Info().Str("event_type", event.Type).RawJSON("payload", event.Payload).Msg("domain event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
