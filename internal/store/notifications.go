package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// NotificationStore owns the notifications table: one row per push-delivery
// attempt, created PENDING and resolved to SENT or FAILED.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore returns a NotificationStore backed by pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Create inserts a PENDING delivery record for a match and returns its ID.
func (s *NotificationStore) Create(ctx context.Context, matchID, subscriberID string) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, match_id, subscriber_id, status)
		 VALUES ($1, $2, $3, $4)`,
		id, matchID, subscriberID, model.DeliveryPending,
	)
	if err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// MarkOutcome records the provider's verdict on a delivery attempt.
func (s *NotificationStore) MarkOutcome(ctx context.Context, id, status, providerCode, providerMessage string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications
		 SET status = $2, provider_code = $3, provider_message = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, status, providerCode, providerMessage,
	)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", id, err)
	}
	return nil
}
