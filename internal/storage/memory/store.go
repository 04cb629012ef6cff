// Package memory provides an in-process PositionStore.
package memory

import (
	"context"
	"sync"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

// Compile-time interface check
var _ interfaces.PositionStore = (*Store)(nil)

// Store keeps positions in a map guarded by a mutex. Values are copied on
// the way in and out.
type Store struct {
	mu        sync.RWMutex
	positions map[string]models.Position
	logger    *common.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *common.Logger) *Store {
	return &Store{
		positions: make(map[string]models.Position),
		logger:    logger,
	}
}

func (s *Store) Get(_ context.Context, id string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return nil, models.ErrPositionNotFound
	}
	return &p, nil
}

func (s *Store) FindByInstrument(ctx context.Context, instrument string) (*models.Position, error) {
	list, err := s.ListByInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrPositionNotFound
	}
	return list[0], nil
}

func (s *Store) ListByInstrument(_ context.Context, instrument string) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Position{}
	for _, p := range s.positions {
		if p.Instrument == instrument {
			p := p
			out = append(out, &p)
		}
	}
	models.SortPositions(out)
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		p := p
		out = append(out, &p)
	}
	models.SortPositions(out)
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, p *models.Position) error {
	if err := ctx.Err(); err != nil {
		return models.NewStoreError("upsert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[p.ID] = *p
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return models.NewStoreError("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.positions, id)
	return nil
}

func (s *Store) ReplaceGroup(ctx context.Context, survivor *models.Position, removedIDs []string) error {
	if err := ctx.Err(); err != nil {
		return models.NewStoreError("replace group", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[survivor.ID] = *survivor
	for _, id := range removedIDs {
		delete(s.positions, id)
	}
	s.logger.Debug().Str("survivor", survivor.ID).Int("removed", len(removedIDs)).Msg("Position group replaced")
	return nil
}

func (s *Store) Close() error {
	return nil
}
