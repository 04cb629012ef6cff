// Package interfaces defines service contracts for Tradebook
package interfaces

import (
	"context"

	"github.com/bobmcallan/tradebook/internal/models"
)

// StorageManager coordinates the configured storage backend
type StorageManager interface {
	PositionStore() PositionStore

	// Backend names the active backend ("memory", "badger", "surrealdb", "postgres").
	Backend() string

	// Lifecycle
	Close() error
}

// PositionStore persists live positions. Records are keyed by ID; the
// instrument is not a unique key at this layer because duplicates are the
// state the consolidator repairs.
type PositionStore interface {
	// Get returns the position with id, or models.ErrPositionNotFound.
	Get(ctx context.Context, id string) (*models.Position, error)

	// FindByInstrument returns the earliest created live position for the
	// instrument, or models.ErrPositionNotFound.
	FindByInstrument(ctx context.Context, instrument string) (*models.Position, error)

	// ListByInstrument returns every live record for the instrument ordered
	// by created_at then id.
	ListByInstrument(ctx context.Context, instrument string) ([]*models.Position, error)

	// ListAll returns every live record ordered by instrument, created_at, id.
	ListAll(ctx context.Context) ([]*models.Position, error)

	// Upsert creates or replaces the record with p.ID.
	Upsert(ctx context.Context, p *models.Position) error

	// Delete removes the record with id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// ReplaceGroup writes survivor and deletes removedIDs as one atomic unit.
	ReplaceGroup(ctx context.Context, survivor *models.Position, removedIDs []string) error

	Close() error
}

// OrderSource supplies executed orders one at a time. Next returns io.EOF
// when the source is exhausted.
type OrderSource interface {
	Next(ctx context.Context) (*models.Order, error)
}
