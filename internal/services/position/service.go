package position

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

// Compile-time interface check
var _ interfaces.PositionService = (*Service)(nil)

// Service implements PositionService over the configured position store.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	applier Applier
	locks   *instrumentLocks
}

// NewService creates a new position service
func NewService(storage interfaces.StorageManager, logger *common.Logger, policy OverdraftPolicy) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		applier: NewApplier(policy),
		locks:   newInstrumentLocks(),
	}
}

// ApplyOrder applies one executed order while holding the instrument's lock,
// then performs the single write the outcome calls for.
func (s *Service) ApplyOrder(ctx context.Context, order models.Order) (*models.Outcome, error) {
	order.Normalize()

	unlock := s.locks.lock(order.Instrument)
	defer unlock()

	store := s.storage.PositionStore()

	existing, err := store.FindByInstrument(ctx, order.Instrument)
	if errors.Is(err, models.ErrPositionNotFound) {
		existing = nil
	} else if err != nil {
		return nil, models.NewStoreError("find position", err)
	}

	outcome, err := s.applier.Apply(existing, order)
	if err != nil {
		s.logger.Warn().
			Str("instrument", order.Instrument).
			Str("side", string(order.Side)).
			Int64("quantity", order.Quantity).
			Err(err).
			Msg("Order not applied")
		return nil, err
	}

	switch outcome.Action {
	case models.ActionClosed:
		err = store.Delete(ctx, existing.ID)
	default:
		err = store.Upsert(ctx, outcome.Position)
	}
	if err != nil {
		return nil, models.NewStoreError(fmt.Sprintf("%s position", outcome.Action), err)
	}

	event := s.logger.Info()
	if outcome.Overdraft {
		event = s.logger.Warn().Bool("overdraft", true)
	}
	event.
		Str("instrument", order.Instrument).
		Str("side", string(order.Side)).
		Str("action", string(outcome.Action)).
		Int64("quantity", outcome.Position.Quantity).
		Str("average_price", outcome.Position.AveragePrice.String()).
		Msg("Order applied")

	return outcome, nil
}

// ApplyAll drains src in order. Orders that fail validation or reconciliation
// are collected in the report and the drain continues; a store failure or a
// broken source stops it.
func (s *Service) ApplyAll(ctx context.Context, src interfaces.OrderSource) (*models.ApplyReport, error) {
	report := &models.ApplyReport{Outcomes: []models.Outcome{}}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		order, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				report.Failures = append(report.Failures, models.OrderFailure{Line: decodeErr.Line, Reason: err.Error(), Err: err})
				continue
			}
			return report, fmt.Errorf("failed to read order %d: %w", n, err)
		}

		outcome, err := s.ApplyOrder(ctx, *order)
		if err != nil {
			if models.IsStoreError(err) {
				return report, err
			}
			report.Failures = append(report.Failures, models.OrderFailure{Line: n, Order: order, Reason: err.Error(), Err: err})
			continue
		}

		report.Applied++
		report.Outcomes = append(report.Outcomes, *outcome)
	}

	s.logger.Info().
		Int("applied", report.Applied).
		Int("failed", len(report.Failures)).
		Msg("Order source drained")

	return report, nil
}

// Positions returns every live position
func (s *Service) Positions(ctx context.Context) ([]*models.Position, error) {
	positions, err := s.storage.PositionStore().ListAll(ctx)
	if err != nil {
		return nil, models.NewStoreError("list positions", err)
	}
	return positions, nil
}

// Position returns the live position for an instrument, or models.ErrPositionNotFound.
func (s *Service) Position(ctx context.Context, instrument string) (*models.Position, error) {
	p, err := s.storage.PositionStore().FindByInstrument(ctx, instrument)
	if err != nil {
		return nil, models.NewStoreError("find position", err)
	}
	return p, nil
}

// Duplicates lists instruments with more than one live record
func (s *Service) Duplicates(ctx context.Context) ([]models.DuplicateGroup, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return DuplicateGroups(snapshot), nil
}

// PreviewConsolidation computes the consolidation of the current records
// without writing anything.
func (s *Service) PreviewConsolidation(ctx context.Context) (*models.Consolidation, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, err := Consolidate(snapshot)
	if err != nil {
		s.logFailures(result.Failures, "Consolidation preview skipped group")
	}
	return result, nil
}

// ConsolidateAll merges every duplicate group found in a snapshot of the
// store. Each group is re-read and written under its instrument lock as one
// ReplaceGroup call. Records created after the snapshot are left alone.
// Group failures, including store errors, are reported in the result and do
// not stop the remaining groups. Cancellation does: groups not yet attempted
// are reported as failures and the partial result is returned with ctx.Err().
func (s *Service) ConsolidateAll(ctx context.Context) (*models.Consolidation, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.Consolidation{
		RemovedIDs: []string{},
		Groups:     []models.GroupMerge{},
	}

	var stopped error
	for _, group := range groupByInstrument(snapshot) {
		if len(group) < 2 {
			continue
		}
		if stopped == nil {
			stopped = ctx.Err()
		}
		if stopped != nil {
			result.Failures = append(result.Failures, groupFailure(group, stopped))
			continue
		}

		merge, err := s.consolidateGroup(ctx, group[0].Instrument, ids(group))
		if err != nil {
			result.Failures = append(result.Failures, groupFailure(group, err))
			continue
		}
		if merge == nil {
			continue
		}
		result.Groups = append(result.Groups, *merge)
		result.RemovedIDs = append(result.RemovedIDs, merge.RemovedIDs...)
	}

	result.Merged = applyMerges(snapshot, result.Groups)

	s.logFailures(result.Failures, "Consolidation skipped group")
	s.logger.Info().
		Int("groups", len(result.Groups)).
		Int("removed", len(result.RemovedIDs)).
		Int("failed", len(result.Failures)).
		Msg("Positions consolidated")

	return result, stopped
}

// consolidateGroup merges the snapshot members of one instrument that still
// exist. It returns nil when fewer than two of them remain.
func (s *Service) consolidateGroup(ctx context.Context, instrument string, snapshotIDs []string) (*models.GroupMerge, error) {
	unlock := s.locks.lock(instrument)
	defer unlock()

	store := s.storage.PositionStore()

	current, err := store.ListByInstrument(ctx, instrument)
	if err != nil {
		return nil, models.NewStoreError("list group", err)
	}

	inSnapshot := make(map[string]bool, len(snapshotIDs))
	for _, id := range snapshotIDs {
		inSnapshot[id] = true
	}
	group := make([]models.Position, 0, len(current))
	for _, p := range current {
		if inSnapshot[p.ID] {
			group = append(group, *p)
		}
	}
	if len(group) < 2 {
		return nil, nil
	}

	survivor, err := mergeGroup(group)
	if err != nil {
		return nil, err
	}
	survivor.Version++
	survivor.UpdatedAt = s.applier.now()

	removed := ids(group[1:])
	if err := store.ReplaceGroup(ctx, &survivor, removed); err != nil {
		return nil, models.NewStoreError("replace group", err)
	}

	s.logger.Info().
		Str("instrument", instrument).
		Str("survivor", survivor.ID).
		Strs("removed", removed).
		Int64("quantity", survivor.Quantity).
		Str("average_price", survivor.AveragePrice.String()).
		Msg("Duplicate positions merged")

	return &models.GroupMerge{
		Instrument: instrument,
		SurvivorID: survivor.ID,
		RemovedIDs: removed,
		Before:     group,
		After:      survivor,
	}, nil
}

func (s *Service) snapshot(ctx context.Context) ([]models.Position, error) {
	all, err := s.storage.PositionStore().ListAll(ctx)
	if err != nil {
		return nil, models.NewStoreError("list positions", err)
	}
	out := make([]models.Position, len(all))
	for i, p := range all {
		out[i] = *p
	}
	return out, nil
}

func (s *Service) logFailures(failures []models.GroupFailure, msg string) {
	for _, f := range failures {
		s.logger.Warn().
			Str("instrument", f.Instrument).
			Strs("ids", f.IDs).
			Err(f.Err).
			Msg(msg)
	}
}

// applyMerges rewrites a snapshot with merged survivors in place and the
// absorbed records removed, sorted by instrument.
func applyMerges(snapshot []models.Position, merges []models.GroupMerge) []models.Position {
	survivors := make(map[string]models.Position, len(merges))
	removed := make(map[string]bool)
	for _, m := range merges {
		survivors[m.SurvivorID] = m.After
		for _, id := range m.RemovedIDs {
			removed[id] = true
		}
	}

	out := make([]models.Position, 0, len(snapshot))
	for _, group := range groupByInstrument(snapshot) {
		for _, p := range group {
			if removed[p.ID] {
				continue
			}
			if after, ok := survivors[p.ID]; ok {
				p = after
			}
			out = append(out, p)
		}
	}
	return out
}

// setClock pins the clock used to stamp written positions.
func (s *Service) setClock(now func() time.Time) {
	s.applier.Now = now
}
