package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"wellbeing-reminder-backend/config"
	"wellbeing-reminder-backend/internal/api"
	"wellbeing-reminder-backend/internal/db"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/queue"
	"wellbeing-reminder-backend/internal/reminder"
	wsignal "wellbeing-reminder-backend/internal/signal"
	"wellbeing-reminder-backend/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

	appStore := store.NewGormStore(gormDB)
	if err := appStore.SeedSettings(ctx, reminder.SeedFromConfig(&cfg.Notifications)); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed notification settings")
	}

	// Select the push channel
	channel, err := buildChannel(ctx, &cfg.Push)
	if err != nil {
		logger.Fatal().Err(err).Str("channel", cfg.Push.Channel).Msg("failed to initialize push channel")
	}
	logger.Info().Str("channel", cfg.Push.Channel).Msg("push channel initialized")

	// Durable job queue and the reminder pipeline on top of it
	q := queue.New(gormDB, cfg.Queue, logger)
	settings := reminder.NewSettingsProvider(appStore, time.Minute)
	orch := reminder.NewOrchestrator(appStore, q, channel, settings, cfg.Push.SendsPerSecond, logger)
	sources := wsignal.NewGormSources(gormDB)

	scheduler := reminder.NewScheduler(appStore, q, settings, logger)
	scheduler.Register(reminder.NewInactivityEvaluator(orch, settings, sources, logger))
	scheduler.Register(reminder.NewMissingMoodEvaluator(orch, settings, sources, logger))
	scheduler.Register(reminder.NewPendingSurveyEvaluator(orch, settings, sources, logger))
	scheduler.Register(reminder.NewUnreadArticleEvaluator(orch, settings, sources, logger))
	scheduler.Register(reminder.NewGlobalInactivityEvaluator(orch, settings, sources, logger))

	broadcaster := reminder.NewBroadcaster(appStore, q, settings, orch, logger)

	q.Handle(reminder.JobTypeReminderBatch, scheduler.HandleBatch)
	q.Handle(reminder.JobTypePushDelivery, orch.HandleDelivery)
	q.Handle(reminder.JobTypeBroadcastFanout, broadcaster.HandleFanout)
	q.Handle(reminder.JobTypeBroadcastPage, broadcaster.HandlePage)

	q.Start(ctx)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	// HTTP surface
	router := api.NewRouter(&cfg.Server, appStore, broadcaster, scheduler, settings)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("server gracefully stopped")
}

func buildChannel(ctx context.Context, cfg *config.PushConfig) (push.Channel, error) {
	switch cfg.Channel {
	case "fcm":
		return push.NewFCMChannel(ctx, cfg.FCMCredentialsFile)
	case "webpush":
		if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
			return nil, errors.New("VAPID keys must be configured for the webpush channel")
		}
		return push.NewWebPushChannel(&webpush.Options{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubject,
			TTL:             cfg.TTL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown push channel %q", cfg.Channel)
	}
}
