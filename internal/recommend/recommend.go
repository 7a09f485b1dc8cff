// Package recommend serves the on-demand recommendations query: rank the
// current job feed for one subscriber with the profile scorer. Unlike the
// bulk matching pass it writes nothing; it is a pure read path.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
	"github.com/start-upps/birjobBackend-sub001/internal/scoring"
)

// DefaultLimit bounds the result size when the caller doesn't ask for one.
const DefaultLimit = 20

// InventorySource supplies the current job feed.
type InventorySource interface {
	ListAll(ctx context.Context) ([]model.JobPosting, error)
}

// SubscriptionGetter resolves one subscriber's subscription.
type SubscriptionGetter interface {
	Get(ctx context.Context, subscriberID string) (model.Subscription, error)
}

// Recommendation pairs a job with its scoring explanation.
type Recommendation struct {
	Job    model.JobPosting `json:"job"`
	Detail scoring.Detail   `json:"detail"`
}

// Recommender ranks jobs for a subscriber.
type Recommender struct {
	inventory InventorySource
	subs      SubscriptionGetter
	scorer    *scoring.ProfileScorer
}

// New wires a Recommender.
func New(inventory InventorySource, subs SubscriptionGetter, scorer *scoring.ProfileScorer) *Recommender {
	return &Recommender{inventory: inventory, subs: subs, scorer: scorer}
}

// Recommend scores every current job against the subscriber's keywords and
// returns the top limit results, best first. Ties break on newer CreatedAt,
// then job ID, so repeated calls over an unchanged feed return a stable
// order.
func (r *Recommender) Recommend(ctx context.Context, subscriberID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sub, err := r.subs.Get(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	jobs, err := r.inventory.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load job feed: %w", err)
	}

	recs := make([]Recommendation, 0, limit)
	for _, job := range jobs {
		detail := r.scorer.Score(job, sub.Keywords)
		if detail.Score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{Job: job, Detail: detail})
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Detail.Score != b.Detail.Score {
			return a.Detail.Score > b.Detail.Score
		}
		if !a.Job.CreatedAt.Equal(b.Job.CreatedAt) {
			return a.Job.CreatedAt.After(b.Job.CreatedAt)
		}
		return a.Job.ID < b.Job.ID
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
