// Package events publishes lifecycle events to Kafka so downstream
// consumers (analytics, billing) can react without coupling to the API.
// Publishing is best-effort: the request that triggered an event never
// fails because the broker is down.
package events

import (
	"context"
	"time"

	"upsell-server/internal/model"
)

// Event names emitted by this service.
const (
	OfferResolved   = "offer.resolved"
	ChangesetSigned = "changeset.signed"
	AppUninstalled  = "app.uninstalled"
)

// Event is the wire payload. Keyed by shop so one shop's events stay
// ordered within a partition.
type Event struct {
	Name       string         `json:"name"`
	Shop       string         `json:"shop"`
	OccurredAt time.Time      `json:"occurredAt"`
	OfferID    int64          `json:"offerID,omitempty"`
	Changes    []model.Change `json:"changes,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(name, shop string) Event {
	return Event{Name: name, Shop: shop, OccurredAt: time.Now().UTC()}
}

// Publisher emits events. Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
