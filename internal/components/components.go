package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"adespota/internal/api"
	"adespota/internal/api/handlers/http/system"
	"adespota/internal/config"
	"adespota/internal/geo"
	"adespota/internal/metrics"
	"adespota/internal/redis"
	"adespota/internal/render"
	"adespota/internal/service"
	"adespota/internal/storage/postgres"
	"adespota/internal/verification"
	"adespota/internal/workers"
	"adespota/pkg/logger"
)

type Components struct {
	logger          *slog.Logger
	HttpServer      *api.Server
	Postgres        *postgres.Postgres
	Redis           *redis.Redis
	ChallengeSender *workers.ChallengeSender
	Janitor         *workers.Janitor
	Verification    *service.Verification
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")

	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		storage.Pool.Close()
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		storage.Pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		storage.Pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	codes := redis.NewCodeStore(redisClient.Client, cfg.Verification.CodeTTL)
	queue := redis.NewChallengeQueue(redisClient.Client)
	cache := redis.NewReportCache(redisClient)
	revocations := redis.NewRevocations(redisClient.Client)

	checker, err := verification.NewChecker(cfg.Verification.Mode, codes)
	if err != nil {
		storage.Pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	var geocoder geo.Geocoder = geo.PlaceholderGeocoder{}
	if cfg.Geo.Mode == "nominatim" {
		geocoder = geo.NewNominatimGeocoder(cfg.Geo.BaseURL, cfg.Geo.UserAgent, cfg.Geo.Timeout)
	}
	locator := geo.NewCapture(geocoder, logger)

	verificationSvc := service.NewVerificationService(
		cfg.Verification,
		storage.Users(),
		codes,
		service.NewChallengeDispatcher(codes, queue),
		checker,
		m,
		logger,
	)
	authSvc := service.NewAuthService(cfg.Auth, storage.Users(), revocations, verificationSvc, logger)
	wizardSvc := service.NewWizardService(storage.Reports(), cache, locator, m, logger)
	reportSvc := service.NewReportService(cfg.Reports, storage.Reports(), cache, m, logger)
	progressSvc := service.NewProgressService(storage.Points())

	srv := service.NewService(authSvc, verificationSvc, wizardSvc, reportSvc, progressSvc)

	health := map[string]system.Pinger{
		"postgres": system.PingFunc(storage.Pool.Ping),
		"redis": system.PingFunc(func(ctx context.Context) error {
			return redisClient.Client.Ping(ctx).Err()
		}),
	}

	httpServer := api.NewServer(ctx, cfg, logger, srv, m, reg, health)
	logger.Info("Initialized server")

	sender := workers.NewChallengeSender(logger.With(slog.String("worker", "challenge_sender")), cfg.Verification, queue, renderer, m)
	janitor := workers.NewJanitor(
		logger.With(slog.String("worker", "janitor")),
		cfg.Sessions.JanitorInterval,
		cfg.Sessions.TTL,
		m,
		map[string]workers.Sweeper{
			"wizard":       wizardSvc,
			"verification": verificationSvc,
		},
	)

	return &Components{
		logger:          logger,
		HttpServer:      httpServer,
		Postgres:        storage,
		Redis:           redisClient,
		ChallengeSender: sender,
		Janitor:         janitor,
		Verification:    verificationSvc,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return logger.NewJSON(os.Stdout, slog.LevelDebug)
	default:
		return logger.NewJSON(os.Stdout, slog.LevelInfo)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	if c.Verification != nil {
		c.Verification.Shutdown()
	}
	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
