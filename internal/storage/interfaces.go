package storage

import (
	"context"
	"io"

	"solana-wallet-watcher/internal/models"
)

// EventCache defines the interface for caching classified events
type EventCache interface {
	// AddRecentEvent adds an event to the recent events list
	AddRecentEvent(ctx context.Context, ev *models.ClassifiedEvent) error

	// GetRecentEvents retrieves the most recent classified events
	GetRecentEvents(ctx context.Context, limit int64) ([]*models.ClassifiedEvent, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer

	// PublishEvent publishes an event to the Pub/Sub channel
	PublishEvent(ctx context.Context, ev *models.ClassifiedEvent) error

	// SubscribeEvents subscribes to real-time classified events
	SubscribeEvents(ctx context.Context) (<-chan *models.ClassifiedEvent, error)
}

// EventStore defines the interface for persistent event storage
type EventStore interface {
	// InsertEvent inserts a classified event into the store
	InsertEvent(ctx context.Context, ev *models.ClassifiedEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// EventHandler is a function that consumes admitted events
type EventHandler func(*models.ClassifiedEvent)

// StreamProvider defines the interface for the upstream push feed. The
// first watched address brings the connection up; removing the last one
// tears it down.
type StreamProvider interface {
	// AddAddress starts watching an address
	AddAddress(address string) bool

	// RemoveAddress stops watching an address
	RemoveAddress(address string) bool

	// WatchedAddresses returns a snapshot of the watched set
	WatchedAddresses() map[string]bool

	// Stop closes the connection and stops reconnect activity
	Stop() error
}
