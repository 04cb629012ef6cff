// Package storetest holds the behaviour every PositionStore backend must
// share. Backend test files call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) interfaces.PositionStore

var epoch = time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

// Fixture builds a position for tests with its P&L computed.
func Fixture(id, instrument string, qty int64, avg, mark string, createdOffset time.Duration) *models.Position {
	p := &models.Position{
		ID:           id,
		Instrument:   instrument,
		Quantity:     qty,
		AveragePrice: decimal.RequireFromString(avg),
		MarkPrice:    decimal.RequireFromString(mark),
		Version:      1,
		CreatedAt:    epoch.Add(createdOffset),
		UpdatedAt:    epoch.Add(createdOffset),
	}
	p.Revalue()
	return p
}

// Run exercises the PositionStore contract against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope")
		assert.True(t, errors.Is(err, models.ErrPositionNotFound), "got %v", err)

		_, err = s.FindByInstrument(context.Background(), "NOPE")
		assert.True(t, errors.Is(err, models.ErrPositionNotFound), "got %v", err)
	})

	t.Run("UpsertGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := Fixture("p1", "RELIANCE", 15, "110.123456789012", "2450.05", 0)
		require.NoError(t, s.Upsert(ctx, p))

		got, err := s.Get(ctx, "p1")
		require.NoError(t, err)
		AssertPositionEqual(t, p, got)

		p.Quantity = 20
		p.Version = 2
		p.Revalue()
		require.NoError(t, s.Upsert(ctx, p))

		got, err = s.Get(ctx, "p1")
		require.NoError(t, err)
		AssertPositionEqual(t, p, got)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1, "upsert must replace, not append")
	})

	t.Run("FindByInstrumentReturnsEarliest", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, Fixture("late", "TCS", 3, "120", "125", time.Hour)))
		require.NoError(t, s.Upsert(ctx, Fixture("early", "TCS", 2, "100", "125", 0)))
		require.NoError(t, s.Upsert(ctx, Fixture("other", "INFY", 1, "1500", "1500", -time.Hour)))

		got, err := s.FindByInstrument(ctx, "TCS")
		require.NoError(t, err)
		assert.Equal(t, "early", got.ID)

		list, err := s.ListByInstrument(ctx, "TCS")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "early", list[0].ID)
		assert.Equal(t, "late", list[1].ID)
	})

	t.Run("ListAllOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, Fixture("b", "TCS", 1, "1", "1", 0)))
		require.NoError(t, s.Upsert(ctx, Fixture("a", "TCS", 1, "1", "1", 0)))
		require.NoError(t, s.Upsert(ctx, Fixture("c", "INFY", 1, "1", "1", time.Hour)))

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{all[0].ID, all[1].ID, all[2].ID})
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, Fixture("p1", "RELIANCE", 5, "100", "100", 0)))
		require.NoError(t, s.Delete(ctx, "p1"))
		require.NoError(t, s.Delete(ctx, "p1"))

		_, err := s.Get(ctx, "p1")
		assert.True(t, errors.Is(err, models.ErrPositionNotFound))
	})

	t.Run("ReplaceGroupLeavesSurvivor", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Upsert(ctx, Fixture("r1", "RELIANCE", 2, "100", "101", 0)))
		require.NoError(t, s.Upsert(ctx, Fixture("r2", "RELIANCE", 3, "120", "121", time.Minute)))
		require.NoError(t, s.Upsert(ctx, Fixture("t1", "TCS", 1, "10", "10", 0)))

		survivor := Fixture("r1", "RELIANCE", 5, "112", "121", 0)
		survivor.Version = 2
		require.NoError(t, s.ReplaceGroup(ctx, survivor, []string{"r2"}))

		list, err := s.ListByInstrument(ctx, "RELIANCE")
		require.NoError(t, err)
		require.Len(t, list, 1)
		AssertPositionEqual(t, survivor, list[0])

		_, err = s.Get(ctx, "t1")
		assert.NoError(t, err, "other instruments are untouched")
	})
}

// AssertPositionEqual compares positions field by field, using decimal and
// time equality rather than struct equality.
func AssertPositionEqual(t *testing.T, want, got *models.Position) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Instrument, got.Instrument)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.True(t, want.AveragePrice.Equal(got.AveragePrice), "average_price: want %s, got %s", want.AveragePrice, got.AveragePrice)
	assert.True(t, want.MarkPrice.Equal(got.MarkPrice), "mark_price: want %s, got %s", want.MarkPrice, got.MarkPrice)
	assert.True(t, want.UnrealizedPnL.Equal(got.UnrealizedPnL), "unrealized_pnl: want %s, got %s", want.UnrealizedPnL, got.UnrealizedPnL)
	assert.True(t, want.UnrealizedPnLPct.Equal(got.UnrealizedPnLPct), "unrealized_pnl_pct: want %s, got %s", want.UnrealizedPnLPct, got.UnrealizedPnLPct)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}
