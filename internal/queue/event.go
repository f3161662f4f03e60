// Package queue carries listing events between the API and the notification
// worker, over RabbitMQ when a broker is configured.
package queue

import (
	"context"
	"time"
)

// ListingCreatedQueue is the durable queue listing.created events are routed to.
const ListingCreatedQueue = "listing.created"

// ListingCreatedEvent is published after an authenticated user creates a
// listing. It carries enough for a consumer to notify the owner without
// reading the listing back.
type ListingCreatedEvent struct {
	ListingID string    `json:"listing_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, ev ListingCreatedEvent) error
