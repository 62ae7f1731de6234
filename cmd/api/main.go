package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
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

	"github.com/wolfman30/kims-booking/internal/api/router"
	"github.com/wolfman30/kims-booking/internal/booking"
	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/chat"
	appconfig "github.com/wolfman30/kims-booking/internal/config"
	"github.com/wolfman30/kims-booking/internal/geo"
	httpmiddleware "github.com/wolfman30/kims-booking/internal/http/middleware"
	"github.com/wolfman30/kims-booking/internal/notify"
	"github.com/wolfman30/kims-booking/internal/observability/metrics"
	"github.com/wolfman30/kims-booking/internal/slots"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting kims-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	a.close(shutdownCtx)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// app is the wired server plus whatever must be released on shutdown.
type app struct {
	handler http.Handler
	closers []func(context.Context)
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}
	checks := map[string]router.HealthCheck{}

	loc := loadLocation(cfg.HospitalTimezone, logger)
	gen := slots.NewGenerator(nil, loc)

	metricsHandler, bookingMetrics := setupMetrics()

	var (
		sessions   booking.SessionStore
		transcript chat.TranscriptStore
	)
	if cfg.UsesRedis() {
		client := newRedisClient(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) { _ = client.Close() })
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		sessions = booking.NewRedisSessionStore(client, cfg.SessionTTL)
		transcript = chat.NewRedisTranscriptStore(client, 0)
		logger.Info("booking sessions stored in redis", "addr", cfg.RedisAddr)
	} else {
		sessions = booking.NewMemorySessionStore(cfg.SessionTTL)
		transcript = chat.NewMemoryTranscriptStore()
		logger.Warn("REDIS_ADDR not set; booking sessions kept in memory")
	}

	var archive bookings.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) { pool.Close() })
		checks["postgres"] = pool.Ping
		archive = bookings.NewPostgresRepository(pool)
	} else {
		archive = bookings.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set; booking confirmations kept in memory")
	}

	dispatcher := notify.NewDispatcher(logger).
		WithWorkers(cfg.DispatchWorkers).
		WithQueueSize(cfg.DispatchQueueSize)
	dispatcher.Start()
	a.closers = append(a.closers, func(ctx context.Context) {
		if err := dispatcher.Close(ctx); err != nil {
			logger.Warn("dispatcher did not drain", "error", err)
		}
	})

	webhook := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:     cfg.BookingWebhookURL,
		Timeout: cfg.BookingWebhookTimeout,
	}, bookingMetrics, logger)
	if !webhook.Enabled() {
		logger.Warn("BOOKING_WEBHOOK_URL not set; confirmations will not be posted")
	}

	matrix := geo.NewDistanceMatrixClient(cfg.GoogleMapsAPIKey, cfg.GeoLookupTimeout)
	ranker := geo.NewRanker(matrix, bookingMetrics, logger)
	locator := geo.NewIPLocator(cfg.GeoIPLookupURL, cfg.GeoLookupTimeout, bookingMetrics, logger)

	svc := booking.NewService(sessions, archive, gen, logger).
		WithNotifier(webhook).
		WithMailer(notify.NewConfirmationMailer(newEmailSender(cfg, logger))).
		WithDispatcher(dispatcher).
		WithMetrics(bookingMetrics).
		WithRanker(ranker).
		WithDefaultCountryCode(cfg.DefaultCountryCode)

	bot := chat.NewBot(svc, chat.NewScheduler(cfg.ChatDelayScale), transcript, logger)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		limiterCtx, cancel := context.WithCancel(context.Background())
		go limiter.Run(limiterCtx)
		a.closers = append(a.closers, func(context.Context) { cancel() })
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; /admin routes disabled")
	}

	a.handler = router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(svc, locator, logger),
		ArchiveHandler:     bookings.NewHandler(archive, logger),
		ChatHandler:        chat.NewHandler(bot, bookingMetrics, logger),
		MetricsHandler:     metricsHandler,
		HealthChecks:       checks,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return a, nil
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func loadLocation(name string, logger *logging.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown HOSPITAL_TIMEZONE; using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func newEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		return sender
	}
	logger.Warn("SENDGRID_API_KEY not set; confirmation emails are logged only")
	return notify.NewStubEmailSender(logger)
}
