// birjob matcher service
//
// Periodically re-scans the full job feed against every active keyword
// subscription, persists new matches (deduplicated by the matches table's
// unique constraint), and dispatches push notifications for each one.
//
// The feed is truncated and reloaded wholesale by the ingestion service, so
// each cycle is a full re-scan; idempotence comes from the match ledger, not
// from any incremental cursor.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/start-upps/birjobBackend-sub001/internal/config"
	"github.com/start-upps/birjobBackend-sub001/internal/db"
	"github.com/start-upps/birjobBackend-sub001/internal/engine"
	"github.com/start-upps/birjobBackend-sub001/internal/events"
	"github.com/start-upps/birjobBackend-sub001/internal/httpapi"
	"github.com/start-upps/birjobBackend-sub001/internal/notify"
	"github.com/start-upps/birjobBackend-sub001/internal/recommend"
	"github.com/start-upps/birjobBackend-sub001/internal/scheduler"
	"github.com/start-upps/birjobBackend-sub001/internal/scoring"
	"github.com/start-upps/birjobBackend-sub001/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[matcher] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[matcher] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[matcher] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[matcher] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[matcher] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[matcher] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[matcher] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	jobs := store.NewJobStore(pool)
	subs := store.NewSubscriptionStore(pool)
	ledger := store.NewMatchLedger(pool)
	records := store.NewNotificationStore(pool)

	dispatcher := notify.NewDispatcher(
		notify.NewExpoClient(cfg.ExpoAccessToken),
		records,
		events.NewPublisher(rdb),
	)

	eng := engine.New(jobs, subs, ledger, dispatcher, engine.Config{
		Weights: scoring.Weights{
			Title:     cfg.TitleWeight,
			Company:   cfg.CompanyWeight,
			Recency:   cfg.RecencyWeight,
			Threshold: cfg.ScoreThreshold,
		},
		Workers: cfg.WorkerCount,
	})

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(eng, cfg.MatchIntervalMinutes, time.Duration(cfg.RetrySeconds)*time.Second)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[matcher] Scheduler: %v", err)
	}

	// Other services can request an immediate pass over Redis.
	go events.ListenCommands(ctx, rdb, func() {
		go func() {
			if err := eng.Process(ctx); err != nil && !errors.Is(err, engine.ErrPassInFlight) {
				log.Printf("[matcher] Commanded pass failed: %v", err)
			}
		}()
	})

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	recommender := recommend.New(jobs, subs, scoring.NewProfileScorer())
	h := httpapi.NewHandler(ctx, eng, recommender)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[matcher] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[matcher] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[matcher] Shutting down…")
	sched.Stop()
	cancel() // stop the command listener and abandon any in-flight pass

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[matcher] Shutdown error: %v", err)
	}
	log.Println("[matcher] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "matcher-service",
		"version": version,
	})
}
