package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whirlwatch/whirlwatch/internal/api"
	"github.com/whirlwatch/whirlwatch/internal/config"
	"github.com/whirlwatch/whirlwatch/internal/db"
	"github.com/whirlwatch/whirlwatch/internal/jobs"
	"github.com/whirlwatch/whirlwatch/internal/metadata"
	"github.com/whirlwatch/whirlwatch/internal/notifications"
	"github.com/whirlwatch/whirlwatch/internal/repository"
	"github.com/whirlwatch/whirlwatch/internal/scheduler"
	"github.com/whirlwatch/whirlwatch/internal/version"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

func main() {
	log.Printf("whirlwatch %s starting...", version.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "migrations"); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)

	store := repository.NewStore(database.DB)
	svc := watchlist.New(store, cfg.Limits)

	var enricher metadata.Enricher = metadata.Noop{}
	if cfg.TMDBAPIKey != "" {
		enricher = metadata.NewTMDBClient(cfg.TMDBAPIKey)
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			enricher = metadata.NewCachedEnricher(enricher, rdb)
		}
	}

	// With redis configured, orphan cleanup runs through the job queue.
	// Without it the engine falls back to inline post-commit cleanup.
	var queue *jobs.Queue
	if cfg.RedisAddr != "" {
		queue = jobs.NewQueue(cfg.RedisAddr)
		handler := jobs.NewCleanupHandler(svc)
		queue.RegisterHandler(jobs.TaskCleanupRatings, handler)
		queue.RegisterHandler(jobs.TaskSweepOrphans, handler)
		if err := queue.Start(); err != nil {
			log.Fatalf("job queue failed: %v", err)
		}
		defer queue.Stop()
		svc.SetCleaner(jobs.NewQueueCleaner(queue))
	}

	var sched *scheduler.Scheduler
	if cfg.CleanupSweepSchedule != "" {
		sched = scheduler.New(svc)
		if err := sched.Start(cfg.CleanupSweepSchedule); err != nil {
			log.Fatalf("scheduler failed: %v", err)
		}
		defer sched.Stop()
	}

	srv := api.NewServer(cfg, database, svc, enricher)
	var webhook notifications.Broadcaster
	if cfg.WebhookURL != "" {
		webhook = notifications.NewWebhookNotifier(cfg.WebhookURL)
	}
	svc.SetNotifier(notifications.Fanout(srv.WSHub(), webhook))

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
