// Package store provides pgx-backed access to the matcher's tables.
//
// The job feed is written by the ingestion service, subscriptions and device
// tokens by the Gateway; the matcher reads them and owns only the matches and
// notifications tables.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// JobStore reads the current job feed.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore returns a JobStore backed by pool.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// ListAll returns the entire current feed as one snapshot.
//
// The ingester truncates and reloads the table every few hours, so there is
// no reliable "since last run" cursor, so every pass re-reads everything. Rows
// stream through a single query; memory is bounded by the feed size, not by
// result paging.
func (s *JobStore) ListAll(ctx context.Context) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, company, source,
		        COALESCE(location, ''), COALESCE(description, ''), COALESCE(requirements, ''),
		        created_at
		 FROM jobs`,
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobPosting, 0, 1024)
	for rows.Next() {
		var j model.JobPosting
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Company, &j.Source,
			&j.Location, &j.Description, &j.Requirements,
			&j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
