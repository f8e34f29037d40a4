package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/lunchtogether/lunchbox-backend/internal/notifications"
	"github.com/lunchtogether/lunchbox-backend/internal/notifications/channels"
	"github.com/lunchtogether/lunchbox-backend/pkg/config"
	"github.com/lunchtogether/lunchbox-backend/pkg/db"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/migrate"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "notification-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())

	// Channels without credentials stay nil and are skipped by the dispatcher.
	dispatcherParams := notifications.DispatcherParams{
		Repo:   notificationsRepo,
		Logger: logg,
	}
	if webPush, err := channels.NewWebPushSender(cfg.WebPush); err != nil {
		logg.Warn(context.Background(), "web push channel disabled: "+err.Error())
	} else {
		dispatcherParams.WebPush = webPush
	}
	if telegram, err := channels.NewTelegramSender(cfg.Telegram); err != nil {
		logg.Warn(context.Background(), "telegram channel disabled: "+err.Error())
	} else {
		dispatcherParams.Telegram = telegram
	}
	if cfg.LineNotify.ClientID != "" {
		dispatcherParams.Line = channels.NewLineNotifySender(cfg.LineNotify)
	} else {
		logg.Warn(context.Background(), "line notify channel disabled: client id not set")
	}

	dispatcher, err := notifications.NewDispatcher(dispatcherParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Handler:    consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "notification-worker",
	})
	logg.Info(ctx, "starting notification worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification worker shutting down gracefully")
}
