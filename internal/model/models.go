// Package model defines shared data structures for the matcher service.
package model

import (
	"strings"
	"time"
)

// JobPosting mirrors a job_feed row as seen by the matcher.
//
// The feed is truncated and reloaded wholesale by the discovery service every
// few hours, so a posting from a prior cycle may disappear and its ID may be
// reused later. Description and Requirements are optional: the feed does not
// guarantee them, and an empty string means "absent".
type JobPosting struct {
	ID           string
	Title        string
	Company      string
	Source       string // e.g. "adzuna", "manual"
	Location     string
	Description  string
	Requirements string
	CreatedAt    time.Time
}

// NotificationTarget is the push-delivery endpoint linked to a subscription.
// Registration and validation of tokens belongs to the device service; the
// matcher only reads active targets.
type NotificationTarget struct {
	SubscriberID string
	PushToken    string
	Active       bool
}

// Subscription is a subscriber's standing keyword interest. One subscription
// per subscriber; mutated by the Gateway, read-only here.
type Subscription struct {
	SubscriberID   string
	Keywords       []string // lowercased, deduplicated, order preserved
	SourceFilter   []string // allow-list of sources; empty = all sources
	LocationFilter LocationFilter
	Active         bool
	Target         NotificationTarget
}

// AllowsSource reports whether the subscription accepts jobs from source.
func (s Subscription) AllowsSource(source string) bool {
	if len(s.SourceFilter) == 0 {
		return true
	}
	for _, allowed := range s.SourceFilter {
		if strings.EqualFold(allowed, source) {
			return true
		}
	}
	return false
}

// LocationFilter is a structured location constraint. The feed does not yet
// carry normalised locations, so the filter is permissive.
//
// TODO: enforce Regions once discovery normalises job locations.
type LocationFilter struct {
	Regions []string
	Remote  bool
}

// Allows reports whether location passes the filter. Currently always true.
func (f LocationFilter) Allows(location string) bool {
	return true
}

// Match records that a job cleared a subscription's relevance threshold.
// Exactly one Match exists per (SubscriberID, JobID); the matches table
// enforces this with a unique constraint.
type Match struct {
	ID              string
	SubscriberID    string
	JobID           string
	MatchedKeywords []string
	RelevanceScore  float64 // 0–100
	Read            bool
	CreatedAt       time.Time
}

// Notification delivery statuses, mirroring the notification_status enum.
const (
	DeliveryPending = "PENDING"
	DeliverySent    = "SENT"
	DeliveryFailed  = "FAILED"
)

// NotificationRecord is one push-delivery attempt for a Match.
type NotificationRecord struct {
	ID              string
	MatchID         string
	SubscriberID    string
	Status          string // PENDING, SENT, FAILED
	ProviderCode    string
	ProviderMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeKeywords lowercases, trims and deduplicates keywords while
// preserving first-seen order. Empty entries are dropped.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
