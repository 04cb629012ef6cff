package interfaces

import (
	"context"

	"github.com/bobmcallan/tradebook/internal/models"
)

// PositionService applies executed orders and repairs duplicate positions
type PositionService interface {
	// ApplyOrder applies one executed order to the position for its instrument
	ApplyOrder(ctx context.Context, order models.Order) (*models.Outcome, error)

	// ApplyAll drains src, applying each order in turn
	ApplyAll(ctx context.Context, src OrderSource) (*models.ApplyReport, error)

	// Positions returns every live position
	Positions(ctx context.Context) ([]*models.Position, error)

	// Position returns the live position for an instrument
	Position(ctx context.Context, instrument string) (*models.Position, error)

	// Duplicates lists instruments with more than one live record
	Duplicates(ctx context.Context) ([]models.DuplicateGroup, error)

	// PreviewConsolidation computes a consolidation without writing it
	PreviewConsolidation(ctx context.Context) (*models.Consolidation, error)

	// ConsolidateAll merges every duplicate group and persists the result.
	// On cancellation the groups already written are still returned.
	ConsolidateAll(ctx context.Context) (*models.Consolidation, error)
}
