package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"goldwatch/internal/config"
	"goldwatch/internal/goldapi"
	"goldwatch/internal/goldtraders"
	"goldwatch/internal/logger"
	"goldwatch/internal/monitor"
	"goldwatch/internal/server"
	"goldwatch/internal/storage"
	"goldwatch/internal/telegram"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("info", "text")
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Init("info", "text")
		logger.Fatal("Invalid config: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting goldwatch")

	store := storage.New(cfg.Storage.FilePath)
	store.Load()
	logger.Info("Loaded %d purchase records from %s", store.Count(), cfg.Storage.FilePath)

	gold := goldtraders.NewClient(cfg.GoldTraders.URL, cfg.GoldTraders.Timeout)

	var spot *goldapi.Client
	if cfg.GoldAPI.APIKey != "" {
		spot = goldapi.NewClient(cfg.GoldAPI.BaseURL, cfg.GoldAPI.APIKey, cfg.GoldAPI.Timeout)
	} else {
		logger.Warn("No goldapi.io API key configured; spot prices disabled")
	}

	mon := monitor.New(gold, spot, cfg.GoldTraders.PollInterval, cfg.GoldAPI.PollInterval)

	if cfg.Alerts.Enabled {
		notifier, err := telegram.NewNotifier(cfg.Alerts.BotToken, cfg.Alerts.ChatID,
			cfg.Alerts.MaxRetries, cfg.Alerts.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to create Telegram notifier: %v", err)
		}
		mon.EnableAlerts(notifier, cfg.Alerts.MinMove, cfg.Alerts.Cooldown)
		logger.Info("Telegram price alerts enabled (min move %.0f THB)", cfg.Alerts.MinMove)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal %v, shutting down", sig)
		cancel()
	}()

	go mon.Run(ctx)

	handlers := server.NewHandlers(store, mon, gold)
	srv := server.New(cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, handlers)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server error: %v", err)
	}

	logger.Info("Shutdown complete")
}
