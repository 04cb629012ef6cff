package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
	"github.com/bobmcallan/tradebook/internal/storage/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) interfaces.PositionStore {
		return NewStore(common.NewSilentLogger())
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore(common.NewSilentLogger())
	ctx := context.Background()

	p := storetest.Fixture("p1", "RELIANCE", 10, "100", "100", 0)
	require.NoError(t, s.Upsert(ctx, p))

	p.Quantity = 99
	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)

	got.Quantity = 42
	again, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.Quantity)
}

func TestStore_CancelledContext(t *testing.T) {
	s := NewStore(common.NewSilentLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Upsert(ctx, storetest.Fixture("p1", "RELIANCE", 1, "1", "1", 0))
	require.Error(t, err)
	assert.True(t, models.IsStoreError(err))
}
