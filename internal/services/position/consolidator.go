package position

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradebook/internal/models"
)

// Consolidate merges every group of positions sharing an instrument into
// its first record, the survivor. The input order is the scan order: it
// picks the survivor and breaks mark-price ties, so callers pass records as
// the store lists them.
//
// Merged holds survivors and untouched records sorted by instrument.
// A group that cannot be merged keeps its records in Merged unchanged and is
// listed in Failures; the returned error joins those failures so that
// errors.Is reports models.ErrDegenerateGroup or models.ErrMixedSignGroup.
// One bad group never blocks the others.
func Consolidate(positions []models.Position) (*models.Consolidation, error) {
	result := &models.Consolidation{
		Merged:     make([]models.Position, 0, len(positions)),
		RemovedIDs: []string{},
		Groups:     []models.GroupMerge{},
	}

	var errs []error
	for _, group := range groupByInstrument(positions) {
		if len(group) == 1 {
			result.Merged = append(result.Merged, group[0])
			continue
		}

		survivor, err := mergeGroup(group)
		if err != nil {
			result.Merged = append(result.Merged, group...)
			result.Failures = append(result.Failures, groupFailure(group, err))
			errs = append(errs, fmt.Errorf("%s: %w", group[0].Instrument, err))
			continue
		}

		removed := ids(group[1:])
		result.Merged = append(result.Merged, survivor)
		result.RemovedIDs = append(result.RemovedIDs, removed...)
		result.Groups = append(result.Groups, models.GroupMerge{
			Instrument: survivor.Instrument,
			SurvivorID: survivor.ID,
			RemovedIDs: removed,
			Before:     group,
			After:      survivor,
		})
	}

	return result, errors.Join(errs...)
}

// DuplicateGroups lists the instruments holding more than one record, each
// with the survivor a consolidation would produce now or the reason it
// cannot.
func DuplicateGroups(positions []models.Position) []models.DuplicateGroup {
	groups := []models.DuplicateGroup{}
	for _, group := range groupByInstrument(positions) {
		if len(group) < 2 {
			continue
		}
		dg := models.DuplicateGroup{
			Instrument: group[0].Instrument,
			Positions:  group,
		}
		if survivor, err := mergeGroup(group); err != nil {
			dg.Reason = err.Error()
		} else {
			dg.Preview = &survivor
		}
		groups = append(groups, dg)
	}
	return groups
}

// mergeGroup folds a duplicate group into a copy of its first record.
func mergeGroup(group []models.Position) (models.Position, error) {
	var long, short bool
	lots := make([]models.Lot, 0, len(group))
	mark := decimal.Zero

	for _, p := range group {
		switch {
		case p.Quantity > 0:
			long = true
		case p.Quantity < 0:
			short = true
		}
		lots = append(lots, p.Lot())

		// Last non-zero mark in scan order wins.
		if !p.MarkPrice.IsZero() {
			mark = p.MarkPrice
		}
	}

	if long && short {
		return models.Position{}, fmt.Errorf("%w: %d records", models.ErrMixedSignGroup, len(group))
	}

	merged, err := MergeLots(lots...)
	if err != nil {
		return models.Position{}, err
	}

	survivor := group[0]
	survivor.Quantity = merged.Quantity
	survivor.AveragePrice = merged.Price
	survivor.MarkPrice = mark
	survivor.Revalue()
	return survivor, nil
}

// groupByInstrument partitions positions by instrument. Groups come back
// sorted by instrument; records inside a group keep their input order.
func groupByInstrument(positions []models.Position) [][]models.Position {
	sorted := make([]models.Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Instrument < sorted[j].Instrument
	})

	var groups [][]models.Position
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Instrument == sorted[i].Instrument {
			j++
		}
		groups = append(groups, sorted[i:j:j])
		i = j
	}
	return groups
}

func groupFailure(group []models.Position, err error) models.GroupFailure {
	return models.GroupFailure{
		Instrument: group[0].Instrument,
		IDs:        ids(group),
		Reason:     err.Error(),
		Err:        err,
	}
}

func ids(positions []models.Position) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.ID
	}
	return out
}
