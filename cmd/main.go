// jobwatch-notify-service
//
// Ingestion-to-fanout pipeline for scraped job postings:
//   - cron-driven scrape → deduplicated persistence → new_jobs publish
//   - pub/sub consumer → keyword matching → per-channel delivery → history
//   - keyword popularity ranking (cache-aside Redis sorted set)
//   - bounded latest-postings cache
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobwatch/notify-service/internal/account"
	"jobwatch/notify-service/internal/config"
	"jobwatch/notify-service/internal/db"
	"jobwatch/notify-service/internal/httpapi"
	"jobwatch/notify-service/internal/ingest"
	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/notifier"
	"jobwatch/notify-service/internal/notifier/channel"
	"jobwatch/notify-service/internal/ranking"
	"jobwatch/notify-service/internal/scheduler"
	"jobwatch/notify-service/internal/scraper"
	"jobwatch/notify-service/internal/store"
	"jobwatch/notify-service/internal/transport"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[notify-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[notify-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[notify-service] PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("[notify-service] Migrations: %v", err)
	}
	log.Println("[notify-service] PostgreSQL connected, schema applied")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[notify-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[notify-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[notify-service] Redis connected")

	// ── Core wiring ──────────────────────────────────────────────────────────
	jobs := store.NewJobStore(pool)
	subs := store.NewSubscriptionStore(pool, nil)
	rank := ranking.New(rdb, subs)
	subs.SetRanking(rank)

	bus := transport.NewBus(rdb)
	ing := ingest.New(jobs, bus, rdb, cfg.LatestJobsMax)
	history := notifier.NewHistory(pool)
	directory := account.NewDirectory(pool)

	registry := buildRegistry(cfg)
	engine := notifier.NewEngine(jobs, subs, directory, history, registry)

	// ── Consumer loop ────────────────────────────────────────────────────────
	var consumerWG sync.WaitGroup
	consumerWG.Add(1)
	go func() {
		defer consumerWG.Done()
		if err := bus.Listen(ctx, engine.HandleJob); err != nil {
			log.Printf("[notify-service] Consumer stopped with error: %v", err)
		}
	}()

	// ── Scrape scheduler ─────────────────────────────────────────────────────
	fetcher := scraper.NewFeedFetcher(cfg.ScrapeFeedURL)
	sched := scheduler.New(fetcher, ing, cfg.ScrapeIntervalHours, cfg.ScrapeLimit)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[notify-service] Scheduler: %v", err)
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	h := httpapi.NewHandler(subs, rank, ing, history)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[notify-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[notify-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[notify-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[notify-service] HTTP shutdown error: %v", err)
	}

	sched.Stop()

	// Cancelling ctx interrupts the blocking subscription read; the
	// consumer finishes its in-flight event before exiting.
	cancel()
	consumerWG.Wait()

	log.Println("[notify-service] Stopped.")
}

// buildRegistry registers a delivery strategy for every channel with
// configured credentials. Unconfigured channels are skipped with a warning;
// dispatches to them fail per-recipient, not at startup.
func buildRegistry(cfg *config.Config) *channel.Registry {
	registry := channel.NewRegistry()

	if cfg.SMTPHost != "" {
		registry.Register(model.ChannelEmail,
			channel.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	} else {
		log.Println("[notify-service] SMTP_HOST not set — email delivery disabled")
	}

	if cfg.DiscordWebhookURL != "" {
		registry.Register(model.ChannelDiscord, channel.NewDiscordSender(cfg.DiscordWebhookURL))
	} else {
		log.Println("[notify-service] DISCORD_WEBHOOK_URL not set — discord delivery disabled")
	}

	if cfg.TelegramBotToken != "" {
		tg, err := channel.NewTelegramSender(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[notify-service] Telegram init failed — telegram delivery disabled: %v", err)
		} else {
			registry.Register(model.ChannelTelegram, tg)
		}
	} else {
		log.Println("[notify-service] TELEGRAM_BOT_TOKEN not set — telegram delivery disabled")
	}

	return registry
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "notify-service",
		"version": version,
	})
}
