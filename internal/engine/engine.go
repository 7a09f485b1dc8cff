// Package engine orchestrates one matching pass: load the job feed, load
// active subscriptions, purge orphaned matches, scan jobs × subscriptions
// through the keyword scorer, persist qualifying matches, and hand new
// matches to the dispatcher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
	"github.com/start-upps/birjobBackend-sub001/internal/scoring"
	"github.com/start-upps/birjobBackend-sub001/internal/store"
)

// ErrPassInFlight is returned by Process when another pass is already
// running. Triggers coalesce: the caller treats this as "already being
// handled", not as a failure.
var ErrPassInFlight = errors.New("matching pass already in flight")

// InventorySource supplies the full current job feed.
type InventorySource interface {
	ListAll(ctx context.Context) ([]model.JobPosting, error)
}

// SubscriptionSource supplies the active subscriptions.
type SubscriptionSource interface {
	ListActive(ctx context.Context) ([]model.Subscription, error)
}

// Ledger is the durable record of already-matched (subscriber, job) pairs.
type Ledger interface {
	Exists(ctx context.Context, subscriberID, jobID string) (bool, error)
	Insert(ctx context.Context, subscriberID, jobID string, matchedKeywords []string, score float64) (store.InsertOutcome, error)
	DeleteOrphans(ctx context.Context, liveJobIDs []string) (int64, error)
}

// Dispatcher delivers the push notification for a newly created match.
// Delivery is best-effort: implementations must absorb their own failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, target model.NotificationTarget, job model.JobPosting, matchedKeywords []string, matchID string)
}

// Config holds the engine's tunables.
type Config struct {
	Weights       scoring.Weights
	Workers       int // concurrent subscription scanners; default 4
	ProgressEvery int // log a progress line every N scanned pairs; default 1000
}

// PassStats summarises one matching pass for the status endpoint and logs.
type PassStats struct {
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Jobs           int       `json:"jobs"`
	Subscriptions  int       `json:"subscriptions"`
	PairsScanned   int64     `json:"pairsScanned"`
	MatchesCreated int64     `json:"matchesCreated"`
	Duplicates     int64     `json:"duplicates"`
	PairErrors     int64     `json:"pairErrors"`
	OrphansRemoved int64     `json:"orphansRemoved"`
	Error          string    `json:"error,omitempty"`
}

// Engine runs matching passes. Exactly one pass runs at a time; concurrent
// Process calls beyond the first return ErrPassInFlight. Even if two passes
// did overlap, the ledger's unique constraint keeps matches single; the guard
// only avoids wasted work and duplicate dispatch attempts.
type Engine struct {
	inventory  InventorySource
	subs       SubscriptionSource
	ledger     Ledger
	dispatcher Dispatcher
	cfg        Config

	running atomic.Bool

	mu   sync.Mutex
	last *PassStats
}

// New wires an Engine. Zero-value Config fields fall back to defaults.
func New(inventory InventorySource, subs SubscriptionSource, ledger Ledger, dispatcher Dispatcher, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 1000
	}
	if cfg.Weights == (scoring.Weights{}) {
		cfg.Weights = scoring.DefaultWeights()
	}
	return &Engine{
		inventory:  inventory,
		subs:       subs,
		ledger:     ledger,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Running reports whether a pass is currently in flight.
func (e *Engine) Running() bool { return e.running.Load() }

// LastPass returns the stats of the most recent pass, if any.
func (e *Engine) LastPass() (PassStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return PassStats{}, false
	}
	return *e.last, true
}

// passCounters aggregates scan results across workers.
type passCounters struct {
	pairs      atomic.Int64
	created    atomic.Int64
	duplicates atomic.Int64
	errors     atomic.Int64
}

// Process runs one full matching pass.
//
// Only a feed or subscription load failure aborts the pass (and is returned);
// every per-pair problem is logged and skipped so one bad record can never
// starve the rest of the scan. Dispatch failures never surface here at all.
func (e *Engine) Process(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrPassInFlight
	}
	defer e.running.Store(false)

	stats := PassStats{StartedAt: time.Now().UTC()}
	defer func() {
		stats.FinishedAt = time.Now().UTC()
		e.mu.Lock()
		e.last = &stats
		e.mu.Unlock()
	}()

	jobs, err := e.inventory.ListAll(ctx)
	if err != nil {
		stats.Error = err.Error()
		return fmt.Errorf("load job feed: %w", err)
	}
	if len(jobs) == 0 {
		// A truncate-and-reload may be mid-flight; purging matches against an
		// empty snapshot would orphan everything. Wait for the next cycle.
		log.Println("[engine] job feed is empty — skipping pass")
		return nil
	}
	stats.Jobs = len(jobs)

	subscriptions, err := e.subs.ListActive(ctx)
	if err != nil {
		stats.Error = err.Error()
		return fmt.Errorf("load subscriptions: %w", err)
	}
	stats.Subscriptions = len(subscriptions)

	liveIDs := make([]string, len(jobs))
	for i, j := range jobs {
		liveIDs[i] = j.ID
	}
	removed, err := e.ledger.DeleteOrphans(ctx, liveIDs)
	if err != nil {
		// Non-fatal: stale matches only delay re-matching until the next
		// successful cleanup.
		log.Printf("[engine] orphan cleanup failed: %v", err)
	}
	stats.OrphansRemoved = removed

	if len(subscriptions) == 0 {
		log.Println("[engine] no active subscriptions — nothing to match")
		return nil
	}

	log.Printf("[engine] Pass started — %d job(s) × %d subscription(s), %d orphan(s) removed",
		len(jobs), len(subscriptions), removed)

	bySource := indexBySource(jobs)
	scoredAt := stats.StartedAt

	var counters passCounters
	subCh := make(chan model.Subscription)
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subCh {
				if err := e.scanSubscription(ctx, sub, jobs, bySource, scoredAt, &counters); err != nil {
					slog.Warn("subscription scan skipped",
						"subscriberId", sub.SubscriberID, "err", err)
				}
			}
		}()
	}
	for _, sub := range subscriptions {
		subCh <- sub
	}
	close(subCh)
	wg.Wait()

	stats.PairsScanned = counters.pairs.Load()
	stats.MatchesCreated = counters.created.Load()
	stats.Duplicates = counters.duplicates.Load()
	stats.PairErrors = counters.errors.Load()

	log.Printf("[engine] Pass complete — pairs=%d created=%d duplicates=%d errors=%d",
		stats.PairsScanned, stats.MatchesCreated, stats.Duplicates, stats.PairErrors)
	return nil
}

// scanSubscription scores every candidate job for one subscription. Returns
// an error only for a malformed subscription; per-job problems are absorbed.
func (e *Engine) scanSubscription(
	ctx context.Context,
	sub model.Subscription,
	jobs []model.JobPosting,
	bySource map[string][]int,
	scoredAt time.Time,
	c *passCounters,
) error {
	if len(sub.Keywords) == 0 {
		return fmt.Errorf("subscription has no keywords")
	}

	for _, idx := range candidateJobs(sub, jobs, bySource) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		job := jobs[idx]

		if n := c.pairs.Add(1); n%int64(e.cfg.ProgressEvery) == 0 {
			log.Printf("[engine] … %d pairs scanned", n)
		}

		if !sub.LocationFilter.Allows(job.Location) {
			continue
		}

		exists, err := e.ledger.Exists(ctx, sub.SubscriberID, job.ID)
		if err != nil {
			c.errors.Add(1)
			slog.Error("ledger lookup failed",
				"subscriberId", sub.SubscriberID, "jobId", job.ID, "err", err)
			continue
		}
		if exists {
			continue
		}

		matched, relevance := e.cfg.Weights.Score(job, sub.Keywords, scoredAt)
		if !e.cfg.Weights.Qualifies(matched, relevance) {
			continue
		}

		outcome, err := e.ledger.Insert(ctx, sub.SubscriberID, job.ID, matched, relevance*100)
		if err != nil {
			c.errors.Add(1)
			slog.Error("match insert failed",
				"subscriberId", sub.SubscriberID, "jobId", job.ID, "err", err)
			continue
		}
		if outcome.Status == store.InsertDuplicate {
			// Benign: another worker or an overlapping trigger got there
			// first. Not an error, and no dispatch.
			c.duplicates.Add(1)
			continue
		}

		c.created.Add(1)
		e.dispatcher.Dispatch(ctx, sub.Target, job, matched, outcome.MatchID)
	}
	return nil
}

// candidateJobs returns the indexes of jobs the subscription's source filter
// admits. The per-source index prunes filtered subscriptions without touching
// every job.
func candidateJobs(sub model.Subscription, jobs []model.JobPosting, bySource map[string][]int) []int {
	if len(sub.SourceFilter) == 0 {
		all := make([]int, len(jobs))
		for i := range jobs {
			all[i] = i
		}
		return all
	}
	var idxs []int
	for _, src := range sub.SourceFilter {
		idxs = append(idxs, bySource[strings.ToLower(src)]...)
	}
	return idxs
}

func indexBySource(jobs []model.JobPosting) map[string][]int {
	bySource := make(map[string][]int)
	for i, j := range jobs {
		key := strings.ToLower(j.Source)
		bySource[key] = append(bySource[key], i)
	}
	return bySource
}
