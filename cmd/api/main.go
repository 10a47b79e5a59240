package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/walid-afk/salon-scheduler/internal/api/router"
	"github.com/walid-afk/salon-scheduler/internal/availability"
	"github.com/walid-afk/salon-scheduler/internal/bookings"
	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/catalog"
	appconfig "github.com/walid-afk/salon-scheduler/internal/config"
	"github.com/walid-afk/salon-scheduler/internal/http/handlers"
	"github.com/walid-afk/salon-scheduler/internal/notify"
	"github.com/walid-afk/salon-scheduler/internal/observability/metrics"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting salon-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.SalonTimezone)
	if err != nil {
		logger.Error("invalid salon timezone", "timezone", cfg.SalonTimezone, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	availMetrics := metrics.NewAvailabilityMetrics(registry)

	// Redis (optional; caching is skipped without it)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
			redisClient = nil
		}
	}

	// Postgres
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Google Calendar busy source
	var googleOpts []option.ClientOption
	switch {
	case cfg.GoogleCredentialsJSON != "":
		googleOpts = append(googleOpts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case cfg.GoogleCredentialsFile != "":
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	googleSource, err := calendar.NewGoogleSource(ctx, loc, logger, googleOpts...)
	if err != nil {
		logger.Error("failed to init google calendar client", "error", err)
		os.Exit(1)
	}
	googleSource = googleSource.WithTimeout(cfg.CalendarTimeout)

	var busySource calendar.BusySource = googleSource
	if redisClient != nil {
		busySource = calendar.NewCachedSource(googleSource, redisClient, cfg.BusyCacheTTL, logger)
	}

	// Shopify catalog
	var catalogAPI catalog.API = catalog.NewClient(catalog.ClientConfig{
		ShopDomain:  cfg.ShopifyShopDomain,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
		Logger:      logger,
	})
	if redisClient != nil {
		catalogAPI = catalog.NewCached(catalogAPI, redisClient, cfg.CatalogCacheTTL, logger)
	}

	// Confirmation email (optional)
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}

	// Domain services
	availSvc, err := availability.NewService(availability.Config{
		Source:   busySource,
		Location: loc,
		Metrics:  availMetrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to init availability service", "error", err)
		os.Exit(1)
	}

	bookSvc, err := bookings.NewService(bookings.Config{
		Repo:      bookings.NewRepository(pool),
		Source:    busySource,
		Events:    googleSource,
		Email:     emailSender,
		Metrics:   availMetrics,
		Logger:    logger,
		Location:  loc,
		SalonName: cfg.SalonName,
	})
	if err != nil {
		logger.Error("failed to init booking service", "error", err)
		os.Exit(1)
	}

	policy := availability.Policy{
		Opening:       cfg.OpeningHours,
		StepMinutes:   cfg.SlotStepMinutes,
		LeadMinutes:   cfg.LeadMinutes,
		BufferMinutes: cfg.BufferMinutes,
	}

	routerCfg := &router.Config{
		Logger: logger,
		Availability: handlers.NewAvailabilityHandler(handlers.AvailabilityConfig{
			Availability: availSvc,
			Source:       busySource,
			Catalog:      catalogAPI,
			Employees:    cfg.Employees,
			Policy:       policy,
			Location:     loc,
			Logger:       logger,
		}),
		Bookings: handlers.NewBookingsHandler(handlers.BookingsConfig{
			Bookings: bookSvc,
			Policy:   policy,
			Location: loc,
			Logger:   logger,
		}),
		Services:           handlers.NewServicesHandler(catalogAPI, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		StaffJWTSecret:     cfg.StaffJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
