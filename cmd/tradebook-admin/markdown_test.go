package main

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/tradebook/internal/models"
)

func pos(id, instrument string, qty int64, avg, mark string) models.Position {
	p := models.Position{
		ID:           id,
		Instrument:   instrument,
		Quantity:     qty,
		AveragePrice: decimal.RequireFromString(avg),
		MarkPrice:    decimal.RequireFromString(mark),
		CreatedAt:    time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC),
	}
	p.Revalue()
	return p
}

func TestPositionsMarkdown(t *testing.T) {
	p := pos("p1", "RELIANCE", 20, "110", "130")
	md := positionsMarkdown([]*models.Position{&p}, "USD")

	assert.Contains(t, md, "| RELIANCE | 20 | $110.00 | $130.00 | $400.00 | 18.18% |")
	assert.Contains(t, md, "1 position(s)")

	assert.Contains(t, positionsMarkdown(nil, "USD"), "No live positions.")
}

func TestDuplicatesMarkdown(t *testing.T) {
	survivor := pos("a", "INFY", 40, "175", "200")
	groups := []models.DuplicateGroup{
		{
			Instrument: "INFY",
			Positions:  []models.Position{pos("a", "INFY", 10, "100", "0"), pos("b", "INFY", 30, "200", "200")},
			Preview:    &survivor,
		},
		{
			Instrument: "HDFC",
			Positions:  []models.Position{pos("c", "HDFC", 5, "1600", "0"), pos("d", "HDFC", -3, "1650", "0")},
			Reason:     models.ErrMixedSignGroup.Error(),
		},
	}

	md := duplicatesMarkdown(groups, "USD")
	assert.Contains(t, md, "## INFY")
	assert.Contains(t, md, "Merges into `a`: 40 @ $175.00")
	assert.Contains(t, md, "**Cannot merge:** "+models.ErrMixedSignGroup.Error())
	assert.Contains(t, md, "2026-03-02 09:15:00")

	assert.Contains(t, duplicatesMarkdown(nil, "USD"), "single record")
}

func TestConsolidationMarkdown(t *testing.T) {
	result := &models.Consolidation{
		RemovedIDs: []string{"b"},
		Groups: []models.GroupMerge{{
			Instrument: "INFY",
			SurvivorID: "a",
			RemovedIDs: []string{"b"},
			After:      pos("a", "INFY", 40, "175", "200"),
		}},
		Failures: []models.GroupFailure{{
			Instrument: "HDFC",
			IDs:        []string{"c", "d"},
			Reason:     "mixed",
			Err:        errors.New("mixed"),
		}},
	}

	md := consolidationMarkdown(result, true, "USD")
	assert.Contains(t, md, "# Consolidation preview")
	assert.Contains(t, md, "| INFY | `a` | 1 | 40 | $175.00 |")
	assert.Contains(t, md, "- **HDFC** (2 records): mixed")
	assert.Contains(t, md, "1 group(s) merged, 1 record(s) removed, 1 group(s) skipped")

	empty := consolidationMarkdown(&models.Consolidation{}, false, "USD")
	assert.Contains(t, empty, "# Consolidation\n")
	assert.Contains(t, empty, "No duplicate positions found.")
}

func TestApplyReportMarkdown(t *testing.T) {
	closed := pos("a", "TCS", 0, "3500", "3600")
	report := &models.ApplyReport{
		Applied:  1,
		Outcomes: []models.Outcome{{Action: models.ActionClosed, Position: &closed, Overdraft: true}},
		Failures: []models.OrderFailure{{Line: 2, Reason: "no position to sell"}},
	}

	md := applyReportMarkdown(report, "USD")
	assert.Contains(t, md, "| TCS | closed (overdraft) | 0 | $3,500.00 |")
	assert.Contains(t, md, "- line 2: no position to sell")
	assert.Contains(t, md, "1 applied, 1 rejected")
}
