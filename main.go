package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eventhive/config"
	auction "eventhive/internal/auctionService"
	"eventhive/internal/lifecycle"
	model "eventhive/internal/models"
	"eventhive/internal/notification"
	"eventhive/internal/repository"
	"eventhive/internal/server"
	ws "eventhive/services/auction/ws"
	"eventhive/utils"
)

func main() {
	cfg := config.Load()
	utils.SetDebug(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := repository.NewMemoryStore()
	seedDemoData(store)

	queue := notification.NewMailQueue(
		notification.LogSender{},
		jobStore(ctx, cfg),
		cfg.MailWorkers,
		cfg.MailMaxAttempts,
		cfg.MailBackoffBase,
	)
	queue.Start(ctx)

	hub := notification.NewHub()
	fanout := notification.NewFanOut(hub, queue, store)

	auctionSvc := auction.NewAuctionService(store, store,
		auction.WithNotifier(fanout),
		auction.WithConsecutiveBidPolicy(cfg.RejectConsecutiveBids),
		auction.WithPendingStart(cfg.AuctionsStartPending),
	)

	monitor := lifecycle.NewMonitor(store, auctionSvc, cfg.MonitorInterval)
	go monitor.Run(ctx)

	wsHandler := ws.NewHandler(hub, auctionSvc)
	router := server.SetupRouter(auctionSvc, wsHandler)

	port := fmt.Sprintf(":%s", cfg.HTTPPort)
	utils.Info("starting auction server", map[string]any{"port": port})
	if err := router.Run(port); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}

// jobStore picks the Redis-backed store when configured and reachable,
// otherwise falls back to the in-memory store.
func jobStore(ctx context.Context, cfg *config.Config) notification.JobStore {
	if cfg.RedisAddr == "" {
		return notification.NewMemoryJobStore()
	}

	store := notification.NewRedisJobStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := store.Ping(ctx); err != nil {
		utils.Warn("redis unreachable, notification jobs will not survive restarts", map[string]any{
			"addr":  cfg.RedisAddr,
			"error": err.Error(),
		})
		return notification.NewMemoryJobStore()
	}
	utils.Info("notification jobs persisted to redis", map[string]any{"addr": cfg.RedisAddr})
	return store
}

// seedDemoData loads sample events, users and auctions into the in-memory store
func seedDemoData(store *repository.MemoryStore) {
	store.AddEvent(model.Event{
		EventID:   "event1",
		Title:     "Tech Conference 2026",
		HostID:    "host1",
		HostEmail: "host1@example.com",
	})
	store.AddUser(model.User{UserID: "host1", Username: "conference-host", Email: "host1@example.com"})
	store.AddUser(model.User{UserID: "sponsor1", Username: "sponsor-one", Email: "sponsor1@example.com"})
	store.AddUser(model.User{UserID: "sponsor2", Username: "sponsor-two", Email: "sponsor2@example.com"})
}
