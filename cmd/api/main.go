package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/membercards/api/controllers"
	"github.com/angelmondragon/membercards/api/routes"
	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/internal/cards/encoder"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/internal/settings"
	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/instance"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/metrics"
	"github.com/angelmondragon/membercards/pkg/migrate"
	"github.com/angelmondragon/membercards/pkg/redis"
	"github.com/angelmondragon/membercards/pkg/storage"
	"github.com/angelmondragon/membercards/pkg/storage/gcs"
	"github.com/angelmondragon/membercards/pkg/storage/local"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured, card style cache disabled")
	}

	store, err := newStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap document store", err)
		os.Exit(1)
	}

	memberService, err := members.NewService(members.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create member service", err)
		os.Exit(1)
	}

	styleParams := settings.ServiceParams{
		Repo:   settings.NewRepository(dbClient.DB()),
		TTL:    cfg.Redis.StyleCacheTTL,
		Logger: logg,
	}
	if redisClient != nil {
		styleParams.Cache = redisClient
	}
	styleService, err := settings.NewService(styleParams)
	if err != nil {
		logg.Error(ctx, "failed to create settings service", err)
		os.Exit(1)
	}
	// settings rows may have changed while the service was down
	if err := styleService.Invalidate(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "settings.cache_invalidate_failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cardService, err := cards.NewService(cards.ServiceParams{
		Members: memberService,
		Styles:  styleService,
		Encoder: encoder.New(encoder.Options{
			ProfileBaseURL: cfg.Cards.ProfileBaseURL,
			QRSize:         cfg.Cards.QRSize,
			BarcodeHeight:  cfg.Cards.BarcodeHeight,
		}),
		Store:       store,
		Logos:       cards.NewLogoFetcher(cfg.Cards.LogoFetchTimeout, logg),
		Metrics:     metrics.NewCardMetrics(registry),
		Logger:      logg,
		Concurrency: cfg.Cards.BatchConcurrency,
	})
	if err != nil {
		logg.Error(ctx, "failed to create card service", err)
		os.Exit(1)
	}

	deps := []controllers.Dependency{
		{Name: "database", Pinger: dbClient},
		{Name: "store", Pinger: store},
	}
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"storage":  cfg.Cards.StorageBackend,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, cardService, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), deps...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func newStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, error) {
	if cfg.Cards.UsesGCS() {
		return gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	}
	return local.New(cfg.Cards.OutputDir, logg)
}
