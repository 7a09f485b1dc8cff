// Package scheduler wires up the cron job that periodically runs a full
// matching pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/start-upps/birjobBackend-sub001/internal/engine"
)

// Scheduler wraps robfig/cron and drives the matching engine. One instance
// per process; passes never overlap (SkipIfStillRunning plus the engine's
// own in-flight guard).
type Scheduler struct {
	cron       *cron.Cron
	engine     *engine.Engine
	spec       string // cron spec, e.g. "@every 240m"
	retryDelay time.Duration

	mu         sync.Mutex
	retryTimer *time.Timer
}

// New creates a Scheduler that fires every intervalMinutes minutes and, after
// a failed pass, retries once after retryDelay instead of waiting a full
// interval.
func New(eng *engine.Engine, intervalMinutes int, retryDelay time.Duration) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		engine:     eng,
		spec:       fmt.Sprintf("@every %dm", intervalMinutes),
		retryDelay: retryDelay,
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so a fresh deployment doesn't sit idle for a full interval.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runPass(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler and cancels any pending retry.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.mu.Unlock()

	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runPass executes one matching pass. A failed pass never kills the loop: it
// is logged and a single short-delay retry is scheduled.
func (s *Scheduler) runPass(ctx context.Context) {
	log.Println("[scheduler] Matching cycle started")

	err := s.engine.Process(ctx)
	switch {
	case err == nil:
		log.Println("[scheduler] Matching cycle complete")
	case errors.Is(err, engine.ErrPassInFlight):
		log.Println("[scheduler] Pass already in flight — skipping")
	default:
		log.Printf("[scheduler] Matching pass failed: %v — retrying in %s", err, s.retryDelay)
		s.scheduleRetry(ctx)
	}
}

// scheduleRetry arms a one-shot retry. Retries never stack: while one is
// pending, further failures fall through to the next regular tick.
func (s *Scheduler) scheduleRetry(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retryTimer != nil {
		return
	}
	s.retryTimer = time.AfterFunc(s.retryDelay, func() {
		s.mu.Lock()
		s.retryTimer = nil
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		s.runPass(ctx)
	})
}
