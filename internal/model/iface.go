package model

import (
	"context"
	"errors"
)

var (
	// ErrCatalogUnavailable wraps any failure of a catalog collaborator.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrGameNotFound is returned for unknown or ended game ids.
	ErrGameNotFound = errors.New("game not found")
)

// CatalogProvider supplies distinct matchable items.
type CatalogProvider interface {
	ListItems(ctx context.Context) ([]Item, error)
}

// GameService is the adapter-facing game contract shared by the in-process
// session host and the socket RPC client.
type GameService interface {
	NewGame(ctx context.Context, opts NewGameOptions) (Snapshot, error)
	Reveal(gameID string, slot int) (Update, error)
	ResolveMismatch(gameID string, first, second int) (Update, error)
	Reset(gameID string) (Update, error)
	Poll(gameID string, afterSeq uint64) (Update, error)
	EndGame(gameID string) error
}

// EventPublisher fans out event batches to external subscribers.
type EventPublisher interface {
	Publish(gameID string, events []Event) error
}
