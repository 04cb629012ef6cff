package badger

import (
	"context"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

// Compile-time interface check
var _ interfaces.PositionStore = (*positionStorage)(nil)

type positionStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPositionStorage creates a new PositionStore backed by BadgerHold.
func NewPositionStorage(store *Store, logger *common.Logger) *positionStorage {
	return &positionStorage{store: store, logger: logger}
}

func (s *positionStorage) Get(_ context.Context, id string) (*models.Position, error) {
	var p models.Position
	if err := s.store.db.Get(id, &p); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrPositionNotFound
		}
		return nil, models.NewStoreError("get position", err)
	}
	return &p, nil
}

func (s *positionStorage) FindByInstrument(ctx context.Context, instrument string) (*models.Position, error) {
	list, err := s.ListByInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrPositionNotFound
	}
	return list[0], nil
}

func (s *positionStorage) ListByInstrument(_ context.Context, instrument string) ([]*models.Position, error) {
	var found []models.Position
	if err := s.store.db.Find(&found, badgerhold.Where("Instrument").Eq(instrument)); err != nil {
		return nil, models.NewStoreError("list positions by instrument", err)
	}
	return sorted(found), nil
}

func (s *positionStorage) ListAll(_ context.Context) ([]*models.Position, error) {
	var found []models.Position
	if err := s.store.db.Find(&found, nil); err != nil {
		return nil, models.NewStoreError("list positions", err)
	}
	return sorted(found), nil
}

func (s *positionStorage) Upsert(_ context.Context, p *models.Position) error {
	if err := s.store.db.Upsert(p.ID, p); err != nil {
		return models.NewStoreError("upsert position", err)
	}
	s.logger.Debug().Str("id", p.ID).Str("instrument", p.Instrument).Msg("Position saved")
	return nil
}

func (s *positionStorage) Delete(_ context.Context, id string) error {
	err := s.store.db.Delete(id, models.Position{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return models.NewStoreError("delete position", err)
	}
	s.logger.Debug().Str("id", id).Msg("Position deleted")
	return nil
}

// ReplaceGroup upserts the survivor and deletes the absorbed records in a
// single Badger transaction.
func (s *positionStorage) ReplaceGroup(_ context.Context, survivor *models.Position, removedIDs []string) error {
	err := s.store.update(func(tx *badgerdb.Txn) error {
		if err := s.store.db.TxUpsert(tx, survivor.ID, survivor); err != nil {
			return err
		}
		for _, id := range removedIDs {
			if err := s.store.db.TxDelete(tx, id, models.Position{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewStoreError("replace group", err)
	}
	s.logger.Debug().Str("survivor", survivor.ID).Int("removed", len(removedIDs)).Msg("Position group replaced")
	return nil
}

// Close is a no-op; the Store owns the database handle.
func (s *positionStorage) Close() error {
	return nil
}

func sorted(found []models.Position) []*models.Position {
	out := make([]*models.Position, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	models.SortPositions(out)
	return out
}
