package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// EventsStream 领域事件 Redis Stream
const EventsStream = "storefront:events"

const (
	EventStoreCreated         = "store.created"
	EventStoreDeleted         = "store.deleted"
	EventOwnershipRepaired    = "ownership.repaired"
	EventSubdomainProvisioned = "subdomain.provisioned"
)

// Event is the JSON payload written under the stream's "data" field.
type Event struct {
	Type      string         `json:"type"`
	OwnerID   string         `json:"ownerId,omitempty"`
	StoreIDs  []string       `json:"storeIds,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// StreamPublisher XADD 到 Redis Stream
type StreamPublisher struct {
	c      *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(c *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = EventsStream
	}
	return &StreamPublisher{c: c, stream: stream, maxLen: 10000}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.c.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":      ev.Type,
			"data":      string(b),
			"timestamp": ev.CreatedAt.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
