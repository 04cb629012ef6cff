package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

// Compile-time interface check
var _ interfaces.PositionStore = (*PositionStore)(nil)

// positionRecord is the stored shape of a position. Decimals are kept as
// strings so no precision is lost to floats; the record id carries the
// position id, mirrored in position_id for reads.
type positionRecord struct {
	PositionID       string    `json:"position_id"`
	Instrument       string    `json:"instrument"`
	Quantity         int64     `json:"quantity"`
	AveragePrice     string    `json:"average_price"`
	MarkPrice        string    `json:"mark_price"`
	UnrealizedPnL    string    `json:"unrealized_pnl"`
	UnrealizedPnLPct string    `json:"unrealized_pnl_pct"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toRecord(p *models.Position) positionRecord {
	return positionRecord{
		PositionID:       p.ID,
		Instrument:       p.Instrument,
		Quantity:         p.Quantity,
		AveragePrice:     p.AveragePrice.String(),
		MarkPrice:        p.MarkPrice.String(),
		UnrealizedPnL:    p.UnrealizedPnL.String(),
		UnrealizedPnLPct: p.UnrealizedPnLPct.String(),
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (r positionRecord) toPosition() (*models.Position, error) {
	p := &models.Position{
		ID:         r.PositionID,
		Instrument: r.Instrument,
		Quantity:   r.Quantity,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&p.AveragePrice, r.AveragePrice},
		{&p.MarkPrice, r.MarkPrice},
		{&p.UnrealizedPnL, r.UnrealizedPnL},
		{&p.UnrealizedPnLPct, r.UnrealizedPnLPct},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("position %s: bad decimal %q: %w", r.PositionID, f.src, err)
		}
		*f.dst = d
	}
	return p, nil
}

// PositionStore persists positions in the position table.
type PositionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPositionStore(db *surrealdb.DB, logger *common.Logger) *PositionStore {
	return &PositionStore{db: db, logger: logger}
}

func recordID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(positionTable, id)
}

func (s *PositionStore) Get(ctx context.Context, id string) (*models.Position, error) {
	record, err := surrealdb.Select[positionRecord](ctx, s.db, recordID(id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrPositionNotFound
		}
		return nil, models.NewStoreError("select position", err)
	}
	if record == nil || record.PositionID == "" {
		return nil, models.ErrPositionNotFound
	}
	p, err := record.toPosition()
	if err != nil {
		return nil, models.NewStoreError("decode position", err)
	}
	return p, nil
}

func (s *PositionStore) FindByInstrument(ctx context.Context, instrument string) (*models.Position, error) {
	list, err := s.ListByInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrPositionNotFound
	}
	return list[0], nil
}

func (s *PositionStore) ListByInstrument(ctx context.Context, instrument string) ([]*models.Position, error) {
	sql := "SELECT * FROM position WHERE instrument = $instrument"
	vars := map[string]any{"instrument": instrument}
	return s.query(ctx, "list positions by instrument", sql, vars)
}

func (s *PositionStore) ListAll(ctx context.Context) ([]*models.Position, error) {
	return s.query(ctx, "list positions", "SELECT * FROM position", nil)
}

func (s *PositionStore) query(ctx context.Context, op, sql string, vars map[string]any) ([]*models.Position, error) {
	results, err := surrealdb.Query[[]positionRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, models.NewStoreError(op, err)
	}

	out := []*models.Position{}
	if results == nil || len(*results) == 0 {
		return out, nil
	}
	for _, r := range (*results)[0].Result {
		p, err := r.toPosition()
		if err != nil {
			return nil, models.NewStoreError(op, err)
		}
		out = append(out, p)
	}
	models.SortPositions(out)
	return out, nil
}

func (s *PositionStore) Upsert(ctx context.Context, p *models.Position) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": recordID(p.ID), "data": toRecord(p)}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]positionRecord](ctx, s.db, sql, vars)
		if err == nil {
			s.logger.Debug().Str("id", p.ID).Str("instrument", p.Instrument).Msg("Position saved")
			return nil
		}
		lastErr = err
	}
	return models.NewStoreError("upsert position", fmt.Errorf("failed after retries: %w", lastErr))
}

func (s *PositionStore) Delete(ctx context.Context, id string) error {
	if _, err := surrealdb.Delete[positionRecord](ctx, s.db, recordID(id)); err != nil && !isNotFoundError(err) {
		return models.NewStoreError("delete position", err)
	}
	return nil
}

// ReplaceGroup writes the survivor and deletes the absorbed records inside
// one SurrealDB transaction.
func (s *PositionStore) ReplaceGroup(ctx context.Context, survivor *models.Position, removedIDs []string) error {
	removed := make([]surrealmodels.RecordID, len(removedIDs))
	for i, id := range removedIDs {
		removed[i] = recordID(id)
	}

	sql := `BEGIN TRANSACTION;
UPSERT $rid CONTENT $data;
FOR $r IN $removed { DELETE $r; };
COMMIT TRANSACTION;`
	vars := map[string]any{
		"rid":     recordID(survivor.ID),
		"data":    toRecord(survivor),
		"removed": removed,
	}

	results, err := surrealdb.Query[any](ctx, s.db, sql, vars)
	if err != nil {
		return models.NewStoreError("replace group", err)
	}
	if results != nil {
		for _, r := range *results {
			if r.Status != "OK" {
				return models.NewStoreError("replace group", fmt.Errorf("statement status %s", r.Status))
			}
		}
	}

	s.logger.Debug().Str("survivor", survivor.ID).Int("removed", len(removedIDs)).Msg("Position group replaced")
	return nil
}

// Close is a no-op; the Manager owns the connection.
func (s *PositionStore) Close() error {
	return nil
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}
