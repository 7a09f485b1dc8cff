package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// codeDeviceNotRegistered is Expo's verdict for a token whose device
// uninstalled the app or revoked notifications. Retiring the token is the
// device service's job; the matcher only records and flags it.
const codeDeviceNotRegistered = "DeviceNotRegistered"

// PushClient sends one push message. Satisfied by ExpoClient.
type PushClient interface {
	Send(ctx context.Context, token string, payload Payload) (Receipt, error)
}

// RecordStore persists delivery attempts. Satisfied by store.NotificationStore.
type RecordStore interface {
	Create(ctx context.Context, matchID, subscriberID string) (string, error)
	MarkOutcome(ctx context.Context, id, status, providerCode, providerMessage string) error
}

// EventPublisher announces new matches on the backend event bus. Satisfied by
// events.Publisher. Optional: a nil publisher disables announcements.
type EventPublisher interface {
	PublishMatchCreated(ctx context.Context, subscriberID, jobID, matchID string) error
}

// Dispatcher turns newly created matches into push notifications.
//
// Everything here is best-effort from the matching engine's point of view:
// the match is already persisted and authoritative, and no delivery failure
// is ever allowed to propagate back or roll it back.
type Dispatcher struct {
	client  PushClient
	records RecordStore
	events  EventPublisher
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(client PushClient, records RecordStore, events EventPublisher) *Dispatcher {
	return &Dispatcher{client: client, records: records, events: events}
}

// Dispatch sends the push for one new match and records the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, target model.NotificationTarget, job model.JobPosting, matchedKeywords []string, matchID string) {
	if d.events != nil {
		if err := d.events.PublishMatchCreated(ctx, target.SubscriberID, job.ID, matchID); err != nil {
			slog.Warn("publish match event failed", "matchId", matchID, "err", err)
		}
	}

	recordID, err := d.records.Create(ctx, matchID, target.SubscriberID)
	if err != nil {
		slog.Error("notification record create failed", "matchId", matchID, "err", err)
		return
	}

	if !target.Active || target.PushToken == "" {
		d.markOutcome(ctx, recordID, model.DeliveryFailed, "InactiveTarget", "notification target is inactive")
		return
	}

	payload := BuildPayload(job, matchedKeywords)
	payload.Data["matchId"] = matchID
	receipt, err := d.client.Send(ctx, target.PushToken, payload)
	if err != nil {
		slog.Error("push send failed",
			"subscriberId", target.SubscriberID, "matchId", matchID, "err", err)
		d.markOutcome(ctx, recordID, model.DeliveryFailed, "TransportError", err.Error())
		return
	}

	if receipt.Delivered {
		d.markOutcome(ctx, recordID, model.DeliverySent, receipt.Code, receipt.Message)
		return
	}
	if receipt.Code == codeDeviceNotRegistered {
		slog.Warn("push target no longer registered",
			"subscriberId", target.SubscriberID, "matchId", matchID)
	}
	d.markOutcome(ctx, recordID, model.DeliveryFailed, receipt.Code, receipt.Message)
}

func (d *Dispatcher) markOutcome(ctx context.Context, recordID, status, code, message string) {
	if err := d.records.MarkOutcome(ctx, recordID, status, code, message); err != nil {
		slog.Error("notification outcome update failed", "recordId", recordID, "err", err)
	}
}

// BuildPayload formats the push message for one match.
func BuildPayload(job model.JobPosting, matchedKeywords []string) Payload {
	body := job.Title
	if job.Company != "" {
		body = fmt.Sprintf("%s at %s", job.Title, job.Company)
	}
	if len(matchedKeywords) > 0 {
		body = fmt.Sprintf("%s — matched: %s", body, strings.Join(matchedKeywords, ", "))
	}
	return Payload{
		Title: "New job match",
		Body:  body,
		Data: map[string]string{
			"jobId":    job.ID,
			"source":   job.Source,
			"keywords": strings.Join(matchedKeywords, ","),
		},
	}
}
