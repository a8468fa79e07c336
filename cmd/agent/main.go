// Command agent runs a headless client: it keeps a local ticket cache
// synchronized with the service and prints admin-response notifications
// as they surface. Useful for smoke-testing the sync layer without a
// browser.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pacific-support/ticketing/internal/client"
	"github.com/pacific-support/ticketing/internal/config"
	"github.com/pacific-support/ticketing/internal/events"
	"github.com/pacific-support/ticketing/internal/observability"
	"github.com/pacific-support/ticketing/internal/persistence"
)

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8080", "ticket service base URL")
	email := flag.String("email", "", "reporter email; empty runs in admin scope")
	cacheDir := flag.String("cache", ".pacific-support", "local cache directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cache, err := client.NewFileCache(*cacheDir)
	if err != nil {
		logger.Fatal("cache init", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	scope := client.Scope{Admin: *email == "", ReporterEmail: *email}
	store := client.NewHTTPStore(*baseURL, *email)

	engine := client.NewEngine(client.EngineDependencies{
		Store:  store,
		Bus:    events.NewRedisBus(redis.Client, logger),
		Cache:  cache,
		Logger: logger,
		Scope:  scope,
		Sync:   cfg.Sync,
	})
	engine.Start()
	defer engine.Close()

	center := client.NewCenter(client.CenterDependencies{
		Store:        store,
		Cache:        cache,
		Logger:       logger,
		Scope:        scope,
		PollInterval: cfg.Sync.PollInterval(),
	})
	center.Start()
	defer center.Close()

	go report(logger, engine, center, cfg.Sync.PollInterval())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

func report(logger *zap.Logger, engine *client.Engine, center *client.Center, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		logger.Info("local state",
			zap.Int("tickets", len(engine.Tickets())),
			zap.Int("unread_notifications", center.UnreadCount()))
	}
}
