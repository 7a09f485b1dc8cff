// Package events implements the Redis pub/sub channels the matcher shares
// with the rest of the backend: it announces new matches and accepts
// run-now commands.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel names follow the backend-wide CMD_/EVENT_ convention.
const (
	ChannelMatchCreated = "EVENT_MATCH_CREATED"
	ChannelRunMatching  = "CMD_RUN_MATCHING"
)

// Publisher announces matcher events on Redis.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher on rdb.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishMatchCreated announces one new match. The Gateway forwards it to
// connected clients over SSE.
func (p *Publisher) PublishMatchCreated(ctx context.Context, subscriberID, jobID, matchID string) error {
	event, err := json.Marshal(map[string]string{
		"type":         ChannelMatchCreated,
		"subscriberId": subscriberID,
		"jobId":        jobID,
		"matchId":      matchID,
		"at":           time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal match event: %w", err)
	}
	return p.rdb.Publish(ctx, ChannelMatchCreated, event).Err()
}

// ListenCommands blocks on the CMD_RUN_MATCHING channel and invokes trigger
// for every message until ctx is cancelled. Other services publish to this
// channel when they want a matching pass without waiting for the next tick
// (e.g. right after a feed reload finishes).
func ListenCommands(ctx context.Context, rdb *redis.Client, trigger func()) {
	sub := rdb.Subscribe(ctx, ChannelRunMatching)
	defer sub.Close()

	log.Printf("[events] Subscribed to %s", ChannelRunMatching)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			log.Printf("[events] %s received: %s", ChannelRunMatching, msg.Payload)
			trigger()
		}
	}
}
