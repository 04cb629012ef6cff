package surrealdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
	"github.com/bobmcallan/tradebook/internal/storage/storetest"
)

func TestPositionStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) interfaces.PositionStore {
		return NewPositionStore(testDB(t), testLogger())
	})
}

func TestPositionRecord_DecimalsRoundTrip(t *testing.T) {
	p := storetest.Fixture("p1", "RELIANCE", 3, "0.3333333333333333", "1234567.891", 0)

	got, err := toRecord(p).toPosition()
	require.NoError(t, err)
	storetest.AssertPositionEqual(t, p, got)
}

func TestPositionRecord_BadDecimal(t *testing.T) {
	r := positionRecord{PositionID: "p1", AveragePrice: "one hundred"}
	_, err := r.toPosition()
	assert.Error(t, err)
}

func TestPositionRecord_EmptyDecimalIsZero(t *testing.T) {
	r := positionRecord{PositionID: "p1", Instrument: "TCS", Quantity: 1, AveragePrice: "10"}
	got, err := r.toPosition()
	require.NoError(t, err)
	assert.True(t, got.MarkPrice.IsZero())
	assert.Equal(t, models.Position{}.UnrealizedPnL.String(), got.UnrealizedPnL.String())
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, isNotFoundError(nil))
	assert.False(t, isNotFoundError(assert.AnError))
	assert.True(t, isNotFoundError(errors.New("record Not Found")))
}
