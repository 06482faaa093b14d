package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nailtimes/salon-backend/internal/api"
	"github.com/nailtimes/salon-backend/internal/auth"
	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/config"
	"github.com/nailtimes/salon-backend/internal/db"
	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/notify"
	"github.com/nailtimes/salon-backend/internal/phone"
	"github.com/nailtimes/salon-backend/internal/presence"
	redisclient "github.com/nailtimes/salon-backend/internal/redis"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

const version = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "api-server")
	logger.Info("starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger.Info("configured", "env", cfg.Env, "http_port", cfg.HTTPPort, "timezone", cfg.BusinessTimeZone)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to postgres")

	schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.EnsureSchema(schemaCtx, pgPool)
	cancelSchema()
	if err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to redis")

	loc := cfg.BusinessLocation()

	bookingRepo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	bookings := booking.NewService(bookingRepo, locker, loc, cfg.DefaultAppointmentMinutes, logger)

	messageRepo := message.NewPgRepository(pgPool)
	messages := message.NewService(messageRepo, message.NewResolver(messageRepo, bookingRepo))

	tracker := presence.NewTracker(cfg.PresenceTTL)
	texter := twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	mailer := notify.NewResendMailer(cfg.ResendAPIKey, cfg.FromEmail)

	dispatcher := notify.NewDispatcher(mailer, texter, messages, tracker, notify.Config{
		AdminNotifyEmail: cfg.AdminNotifyEmail,
		AdminNotifyPhone: phone.Normalize(cfg.AdminNotifyPhone),
		Location:         loc,
	}, logger)

	otpRepo := auth.NewPgOTPRepository(pgPool)
	authSvc := auth.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.Admin2FAEnabled, otpRepo, dispatcher, logger)

	router := api.NewRouter(api.RouterConfig{
		Bookings: bookings,
		Messages: messages,
		Auth:     authSvc,
		Notifier: dispatcher,
		Texter:   texter,
		Webhook: twilio.Validator{
			AuthToken: cfg.TwilioAuthToken,
			BaseURL:   cfg.TwilioWebhookBaseURL,
			Enabled:   cfg.ValidateTwilioWebhook,
		},
		Presence: tracker,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}

	// Let in-flight notification sends finish before the process exits.
	dispatcher.Wait()
	logger.Info("stopped")
}
