package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// ErrSubscriptionNotFound is returned by Get for unknown or inactive
// subscribers.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionStore reads keyword subscriptions. Subscriptions are mutated by
// the Gateway; the matcher treats them as read-only.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore returns a SubscriptionStore backed by pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

const subscriptionColumns = `
	s.subscriber_id, s.keywords, COALESCE(s.source_filter, '{}'),
	COALESCE(s.location_regions, '{}'), COALESCE(s.location_remote, false),
	d.push_token`

// ListActive returns all active subscriptions whose subscriber also has an
// active device token. Subscribers without a live token cannot receive
// pushes, so the matching pass skips them entirely.
func (s *SubscriptionStore) ListActive(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 JOIN device_tokens d ON d.subscriber_id = s.subscriber_id AND d.active = true
		 WHERE s.active = true`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Get returns one active subscription (with its device token) by subscriber
// ID. Used by the recommendations path.
func (s *SubscriptionStore) Get(ctx context.Context, subscriberID string) (model.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions s
		 JOIN device_tokens d ON d.subscriber_id = s.subscriber_id AND d.active = true
		 WHERE s.active = true AND s.subscriber_id = $1`,
		subscriberID,
	)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("query subscription: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Subscription{}, fmt.Errorf("query subscription: %w", err)
		}
		return model.Subscription{}, ErrSubscriptionNotFound
	}
	return scanSubscription(rows)
}

func scanSubscription(rows pgx.Rows) (model.Subscription, error) {
	var sub model.Subscription
	var keywords, sourceFilter, regions []string
	var remote bool
	var pushToken string
	if err := rows.Scan(
		&sub.SubscriberID, &keywords, &sourceFilter,
		&regions, &remote, &pushToken,
	); err != nil {
		return model.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}

	sub.Keywords = model.NormalizeKeywords(keywords)
	sub.SourceFilter = sourceFilter
	sub.LocationFilter = model.LocationFilter{Regions: regions, Remote: remote}
	sub.Active = true
	sub.Target = model.NotificationTarget{
		SubscriberID: sub.SubscriberID,
		PushToken:    pushToken,
		Active:       true,
	}
	return sub, nil
}
