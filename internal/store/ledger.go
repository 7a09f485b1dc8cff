package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// InsertStatus tags the outcome of a ledger insert. A duplicate is an
// expected part of idempotent re-scans, so it is a status value rather than
// an error.
type InsertStatus int

const (
	// InsertCreated means a new match row was written.
	InsertCreated InsertStatus = iota
	// InsertDuplicate means the (subscriber, job) pair already existed.
	InsertDuplicate
)

// InsertOutcome carries the insert status and, for InsertCreated, the new
// match ID.
type InsertOutcome struct {
	Status  InsertStatus
	MatchID string
}

// MatchLedger owns the matches table: the durable record of which
// (subscriber, job) pairs have already matched. The table's unique constraint
// on (subscriber_id, job_id) is the deduplication authority, not any
// read-then-write check in the caller.
type MatchLedger struct {
	pool *pgxpool.Pool
}

// NewMatchLedger returns a MatchLedger backed by pool.
func NewMatchLedger(pool *pgxpool.Pool) *MatchLedger {
	return &MatchLedger{pool: pool}
}

// Exists reports whether a match for (subscriberID, jobID) is already
// recorded. Used as a cheap pre-filter during scans; Insert remains the
// race-safe authority.
func (l *MatchLedger) Exists(ctx context.Context, subscriberID, jobID string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE subscriber_id = $1 AND job_id = $2)`,
		subscriberID, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("match exists query: %w", err)
	}
	return exists, nil
}

// Insert writes a match, resolving insertion races through the unique
// constraint: concurrent inserts of the same pair leave exactly one row, and
// the losers see InsertDuplicate rather than an error.
func (l *MatchLedger) Insert(ctx context.Context, subscriberID, jobID string, matchedKeywords []string, score float64) (InsertOutcome, error) {
	var id string
	err := l.pool.QueryRow(ctx,
		`INSERT INTO matches (id, subscriber_id, job_id, matched_keywords, relevance_score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (subscriber_id, job_id) DO NOTHING
		 RETURNING id`,
		uuid.NewString(), subscriberID, jobID, matchedKeywords, score,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return InsertOutcome{Status: InsertDuplicate}, nil
	}
	if err != nil {
		return InsertOutcome{}, fmt.Errorf("insert match: %w", err)
	}
	return InsertOutcome{Status: InsertCreated, MatchID: id}, nil
}

// DeleteOrphans removes matches whose job no longer exists in the freshly
// loaded feed, then returns the number of rows removed. Without this the
// ledger would grow without bound across feed reloads, and a recycled job ID
// could never match again.
//
// An empty snapshot is treated as "feed reload in progress" and deletes
// nothing; the caller skips the pass in that case anyway.
func (l *MatchLedger) DeleteOrphans(ctx context.Context, liveJobIDs []string) (int64, error) {
	if len(liveJobIDs) == 0 {
		return 0, nil
	}
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM matches WHERE NOT (job_id = ANY($1))`,
		liveJobIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("delete orphan matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUnread returns a subscriber's unread matches, newest first. Consumed by
// the Gateway's match-list view.
func (l *MatchLedger) ListUnread(ctx context.Context, subscriberID string) ([]model.Match, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, subscriber_id, job_id, matched_keywords, relevance_score, read, created_at
		 FROM matches
		 WHERE subscriber_id = $1 AND read = false
		 ORDER BY created_at DESC`,
		subscriberID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unread matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(
			&m.ID, &m.SubscriberID, &m.JobID, &m.MatchedKeywords,
			&m.RelevanceScore, &m.Read, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
