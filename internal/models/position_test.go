package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPosition_Revalue(t *testing.T) {
	p := Position{
		Quantity:     20,
		AveragePrice: decimal.NewFromInt(110),
		MarkPrice:    decimal.NewFromInt(130),
	}
	p.Revalue()

	assert.True(t, p.UnrealizedPnL.Equal(decimal.NewFromInt(400)), p.UnrealizedPnL.String())
	assert.Equal(t, "18.18", p.UnrealizedPnLPct.StringFixed(2))
	assert.True(t, p.CostBasis().Equal(decimal.NewFromInt(2200)))
}

func TestPosition_RevalueZeroBasis(t *testing.T) {
	p := Position{Quantity: 10, AveragePrice: decimal.Zero, MarkPrice: decimal.NewFromInt(5)}
	p.Revalue()

	assert.True(t, p.UnrealizedPnL.Equal(decimal.NewFromInt(50)))
	assert.True(t, p.UnrealizedPnLPct.IsZero())
}

func TestPosition_Clone(t *testing.T) {
	var nilPos *Position
	assert.Nil(t, nilPos.Clone())

	p := &Position{ID: "a", Quantity: 1}
	c := p.Clone()
	c.Quantity = 2
	assert.Equal(t, int64(1), p.Quantity)
}

func TestSortPositions(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	list := []*Position{
		{ID: "c", Instrument: "TCS", CreatedAt: t0},
		{ID: "b", Instrument: "INFY", CreatedAt: t0.Add(time.Minute)},
		{ID: "z", Instrument: "INFY", CreatedAt: t0},
		{ID: "a", Instrument: "INFY", CreatedAt: t0},
	}
	SortPositions(list)

	var ids []string
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "z", "b", "c"}, ids)
}

func TestNewStoreError(t *testing.T) {
	assert.NoError(t, NewStoreError("get", nil))
	assert.Equal(t, ErrPositionNotFound, NewStoreError("get", ErrPositionNotFound))

	disk := errors.New("disk full")
	err := NewStoreError("upsert", disk)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, disk)
	assert.Equal(t, "store upsert: disk full", err.Error())

	assert.Same(t, err, NewStoreError("outer", err), "already wrapped errors are not wrapped again")
	assert.False(t, IsStoreError(ErrOverdraft))
}
