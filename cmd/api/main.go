package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/lunchtogether/lunchbox-backend/api/routes"
	"github.com/lunchtogether/lunchbox-backend/internal/auth"
	"github.com/lunchtogether/lunchbox-backend/internal/items"
	"github.com/lunchtogether/lunchbox-backend/internal/notifications"
	"github.com/lunchtogether/lunchbox-backend/internal/notifications/channels"
	"github.com/lunchtogether/lunchbox-backend/internal/orders"
	"github.com/lunchtogether/lunchbox-backend/internal/stores"
	"github.com/lunchtogether/lunchbox-backend/internal/users"
	"github.com/lunchtogether/lunchbox-backend/pkg/config"
	"github.com/lunchtogether/lunchbox-backend/pkg/db"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/migrate"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
	"github.com/lunchtogether/lunchbox-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	storeRepo := stores.NewRepository(dbClient.DB())
	storeService, err := stores.NewService(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	itemRepo := items.NewRepository(dbClient.DB())
	itemService, err := items.NewService(itemRepo, storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:                   orders.NewRepository(dbClient.DB()),
		Items:                  itemRepo,
		Stores:                 storeRepo,
		Tx:                     dbClient,
		Outbox:                 outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		DefaultReminderMinutes: cfg.Sweep.DefaultReminderMinutes,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	// The OAuth link flow only works when LINE Notify credentials are set.
	var lineNotify *channels.LineNotifySender
	if cfg.LineNotify.ClientID != "" && cfg.LineNotify.ClientSecret != "" {
		lineNotify = channels.NewLineNotifySender(cfg.LineNotify)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Auth:          authService,
			Stores:        storeService,
			Items:         itemService,
			Orders:        orderService,
			Notifications: notificationService,
			LineNotify:    lineNotify,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
