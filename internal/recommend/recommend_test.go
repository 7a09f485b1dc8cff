package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
	"github.com/start-upps/birjobBackend-sub001/internal/recommend"
	"github.com/start-upps/birjobBackend-sub001/internal/scoring"
)

type fakeInventory struct {
	jobs []model.JobPosting
	err  error
}

func (f *fakeInventory) ListAll(ctx context.Context) ([]model.JobPosting, error) {
	return f.jobs, f.err
}

type fakeSubs struct {
	sub model.Subscription
	err error
}

func (f *fakeSubs) Get(ctx context.Context, subscriberID string) (model.Subscription, error) {
	if f.err != nil {
		return model.Subscription{}, f.err
	}
	return f.sub, nil
}

var base = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

func feed() []model.JobPosting {
	return []model.JobPosting{
		{ID: "1", Title: "Accountant", Company: "Ledger LLC", CreatedAt: base},
		{ID: "2", Title: "Python Developer", Company: "Acme", CreatedAt: base},
		{ID: "3", Title: "Senior Python Developer", Company: "Acme",
			Description: "Python services in production", CreatedAt: base.Add(time.Hour)},
	}
}

func pythonSub() model.Subscription {
	return model.Subscription{SubscriberID: "u1", Keywords: []string{"python"}, Active: true}
}

func newRecommender(inv *fakeInventory, subs *fakeSubs) *recommend.Recommender {
	return recommend.New(inv, subs, scoring.NewProfileScorer())
}

func TestRecommend_RanksByScore(t *testing.T) {
	r := newRecommender(&fakeInventory{jobs: feed()}, &fakeSubs{sub: pythonSub()})

	recs, err := r.Recommend(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2 (accountant excluded)", len(recs))
	}
	// Job 3 hits title and description; job 2 title only.
	if recs[0].Job.ID != "3" || recs[1].Job.ID != "2" {
		t.Errorf("order = [%s %s], want [3 2]", recs[0].Job.ID, recs[1].Job.ID)
	}
	if recs[0].Detail.Score <= recs[1].Detail.Score {
		t.Errorf("scores not descending: %v then %v", recs[0].Detail.Score, recs[1].Detail.Score)
	}
}

func TestRecommend_LimitTruncates(t *testing.T) {
	r := newRecommender(&fakeInventory{jobs: feed()}, &fakeSubs{sub: pythonSub()})

	recs, err := r.Recommend(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].Job.ID != "3" {
		t.Errorf("recs = %v, want only the top result", recs)
	}
}

func TestRecommend_TieBreaksOnNewerJob(t *testing.T) {
	jobs := []model.JobPosting{
		{ID: "old", Title: "Python Developer", CreatedAt: base},
		{ID: "new", Title: "Python Developer", CreatedAt: base.Add(2 * time.Hour)},
	}
	r := newRecommender(&fakeInventory{jobs: jobs}, &fakeSubs{sub: pythonSub()})

	recs, err := r.Recommend(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(recs) != 2 || recs[0].Job.ID != "new" {
		t.Errorf("equal scores must order newer first, got %+v", recs)
	}
}

func TestRecommend_SubscriptionLookupFailure(t *testing.T) {
	wantErr := errors.New("no such subscriber")
	r := newRecommender(&fakeInventory{jobs: feed()}, &fakeSubs{err: wantErr})

	if _, err := r.Recommend(context.Background(), "ghost", 10); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestRecommend_FeedLoadFailure(t *testing.T) {
	r := newRecommender(&fakeInventory{err: errors.New("db down")}, &fakeSubs{sub: pythonSub()})

	if _, err := r.Recommend(context.Background(), "u1", 10); err == nil {
		t.Error("expected error when the feed cannot be loaded")
	}
}

func TestRecommend_DefaultLimit(t *testing.T) {
	jobs := make([]model.JobPosting, 0, recommend.DefaultLimit+10)
	for i := 0; i < recommend.DefaultLimit+10; i++ {
		jobs = append(jobs, model.JobPosting{
			ID:        string(rune('a' + i%26)) + string(rune('0'+i/26)),
			Title:     "Python Developer",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	r := newRecommender(&fakeInventory{jobs: jobs}, &fakeSubs{sub: pythonSub()})

	recs, err := r.Recommend(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(recs) != recommend.DefaultLimit {
		t.Errorf("got %d recommendations, want default limit %d", len(recs), recommend.DefaultLimit)
	}
}
