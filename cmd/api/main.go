package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/config"
	"github.com/kinpay/kinpay/internal/infra"
	"github.com/kinpay/kinpay/internal/logging"
	"github.com/kinpay/kinpay/internal/notification"
	"github.com/kinpay/kinpay/internal/principal"
	"github.com/kinpay/kinpay/internal/routes"
	"github.com/kinpay/kinpay/internal/scheduler"
	"github.com/kinpay/kinpay/internal/server"
	"github.com/kinpay/kinpay/internal/txlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	store := account.NewPostgresStore(db)
	txLog := txlog.NewPostgresLog(db)
	principals := principal.NewPostgresRepository(db)
	inbox := notification.NewInbox(notification.NewLoggerNotifier(logger))

	srv, err := server.New(routes.Deps{
		Cfg:        cfg,
		DB:         db,
		Cache:      cache,
		Store:      store,
		Log:        txLog,
		Principals: principals,
		Inbox:      inbox,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	resetter := scheduler.New(scheduler.NewLimitResetter(store, logger), cfg.LimitResetPeriod, logger)
	reaper := scheduler.New(scheduler.NewExpiryReaper(store, time.Now, logger), cfg.CardReapPeriod, logger)
	resetter.Start(ctx)
	reaper.Start(ctx)
	defer reaper.Stop()
	defer resetter.Stop()

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
