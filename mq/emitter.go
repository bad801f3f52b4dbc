// Package mq publishes marketplace events to a Redis Pub/Sub channel so other
// services (mailers, search indexers) can react without polling Mongo.
//
// Publishing is best effort. Nothing is emitted until Setup is called, which
// keeps single-process deployments free of Redis.
package mq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ticketbari/logger"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "ticketbari-events"

const (
	TicketStatusChanged = "ticket.status_changed"
	BookingDecided      = "booking.decided"
	PaymentRecorded     = "payment.recorded"
	VendorMarkedFraud   = "vendor.marked_fraud"
)

type Event struct {
	Name       string         `json:"name"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	At         time.Time      `json:"at"`
	Data       map[string]any `json:"data,omitempty"`
}

var (
	mu      sync.RWMutex
	conn    *redis.Client
	channel = DefaultChannel
)

// Setup routes Emit to client on ch. A nil client turns publishing off.
func Setup(client *redis.Client, ch string) {
	mu.Lock()
	defer mu.Unlock()
	conn = client
	channel = DefaultChannel
	if ch != "" {
		channel = ch
	}
}

// Emit publishes evt. Failures are logged and never reach the caller.
func Emit(ctx context.Context, evt Event) {
	mu.RLock()
	client, ch := conn, channel
	mu.RUnlock()
	if client == nil {
		return
	}

	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	log := logger.WithCtx(ctx).With("event", evt.Name, "entity_id", evt.EntityID)

	data, err := json.Marshal(evt)
	if err != nil {
		log.Error("marshal event", "err", err)
		return
	}
	if err := client.Publish(ctx, ch, string(data)).Err(); err != nil {
		log.Warn("publish event", "channel", ch, "err", err)
	}
}
