package position

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bobmcallan/tradebook/internal/models"
)

var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func testApplier(policy OverdraftPolicy) Applier {
	n := 0
	return Applier{
		Policy: policy,
		Now:    func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("pos-%d", n)
		},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func executed(side models.Side, instrument string, qty int64, price string) models.Order {
	return models.Order{
		Side:       side,
		Instrument: instrument,
		Quantity:   qty,
		Price:      dec(price),
		Status:     models.OrderStatusExecuted,
	}
}

func held(qty int64, avg, mark string) *models.Position {
	p := &models.Position{
		ID:           "held-1",
		Instrument:   "RELIANCE",
		Quantity:     qty,
		AveragePrice: dec(avg),
		MarkPrice:    dec(mark),
		Version:      3,
		CreatedAt:    testNow.Add(-24 * time.Hour),
		UpdatedAt:    testNow.Add(-time.Hour),
	}
	p.Revalue()
	return p
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %s, got %s", field, want, got)
}

func TestApply_FirstBuyCreatesPosition(t *testing.T) {
	a := testApplier(OverdraftReject)

	out, err := a.Apply(nil, executed(models.SideBuy, "RELIANCE", 10, "100"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionCreated, out.Action)
	assert.False(t, out.Overdraft)
	p := out.Position
	assert.Equal(t, "pos-1", p.ID)
	assert.Equal(t, "RELIANCE", p.Instrument)
	assert.Equal(t, int64(10), p.Quantity)
	assertDecimal(t, "100", p.AveragePrice, "average_price")
	assertDecimal(t, "100", p.MarkPrice, "mark_price")
	assertDecimal(t, "0", p.UnrealizedPnL, "unrealized_pnl")
	assertDecimal(t, "0", p.UnrealizedPnLPct, "unrealized_pnl_pct")
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, testNow, p.CreatedAt)
}

func TestApply_LastTradedPriceSeedsMark(t *testing.T) {
	a := testApplier(OverdraftReject)
	order := executed(models.SideBuy, "RELIANCE", 10, "100")
	order.LastTradedPrice = decPtr("105")

	out, err := a.Apply(nil, order)
	require.NoError(t, err)

	assertDecimal(t, "100", out.Position.AveragePrice, "average_price")
	assertDecimal(t, "105", out.Position.MarkPrice, "mark_price")
	assertDecimal(t, "50", out.Position.UnrealizedPnL, "unrealized_pnl")
	assertDecimal(t, "5", out.Position.UnrealizedPnLPct, "unrealized_pnl_pct")
}

// BUY 10 @ 100 then BUY 5 @ 130 gives 15 @ 110.
func TestApply_BuyMergesWeightedAverage(t *testing.T) {
	a := testApplier(OverdraftReject)

	first, err := a.Apply(nil, executed(models.SideBuy, "RELIANCE", 10, "100"))
	require.NoError(t, err)

	out, err := a.Apply(first.Position, executed(models.SideBuy, "RELIANCE", 5, "130"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionUpdated, out.Action)
	assert.Equal(t, first.Position.ID, out.Position.ID)
	assert.Equal(t, int64(15), out.Position.Quantity)
	assertDecimal(t, "110.00", out.Position.AveragePrice, "average_price")
	assertDecimal(t, "130", out.Position.MarkPrice, "mark_price")
	assertDecimal(t, "300", out.Position.UnrealizedPnL, "unrealized_pnl")
	assert.Equal(t, int64(2), out.Position.Version)
	assert.Equal(t, first.Position.CreatedAt, out.Position.CreatedAt)
}

// SELL 5 @ 200 from 15 @ 110 leaves 10 @ 110.
func TestApply_SellKeepsAveragePrice(t *testing.T) {
	a := testApplier(OverdraftReject)
	existing := held(15, "110", "110")

	out, err := a.Apply(existing, executed(models.SideSell, "RELIANCE", 5, "200"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionUpdated, out.Action)
	assert.Equal(t, int64(10), out.Position.Quantity)
	assertDecimal(t, "110", out.Position.AveragePrice, "average_price")
	assertDecimal(t, "200", out.Position.MarkPrice, "mark_price")
	assertDecimal(t, "900", out.Position.UnrealizedPnL, "unrealized_pnl")
	assert.Equal(t, int64(4), out.Position.Version)

	assert.Equal(t, int64(15), existing.Quantity, "input position must not be mutated")
}

// SELL 10 from 10 @ 110 closes the position.
func TestApply_SellToZeroCloses(t *testing.T) {
	for _, price := range []string{"0", "1", "110", "999.99"} {
		t.Run(price, func(t *testing.T) {
			a := testApplier(OverdraftReject)

			out, err := a.Apply(held(10, "110", "110"), executed(models.SideSell, "RELIANCE", 10, price))
			require.NoError(t, err)

			assert.Equal(t, models.ActionClosed, out.Action)
			assert.False(t, out.Overdraft)
			assert.Equal(t, "held-1", out.Position.ID)
			assert.Equal(t, int64(0), out.Position.Quantity)
			assertDecimal(t, "0", out.Position.UnrealizedPnL, "unrealized_pnl")
		})
	}
}

// SELL 3 with nothing held is reported, not silently ignored.
func TestApply_SellWithoutPosition(t *testing.T) {
	a := testApplier(OverdraftReject)

	out, err := a.Apply(nil, executed(models.SideSell, "RELIANCE", 3, "100"))
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, models.ErrNoPositionToSell), "got %v", err)
}

func TestApply_OverdraftRejected(t *testing.T) {
	a := testApplier(OverdraftReject)

	out, err := a.Apply(held(10, "110", "110"), executed(models.SideSell, "RELIANCE", 12, "120"))
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, models.ErrOverdraft), "got %v", err)
}

func TestApply_OverdraftClosed(t *testing.T) {
	a := testApplier(OverdraftClose)

	out, err := a.Apply(held(10, "110", "110"), executed(models.SideSell, "RELIANCE", 12, "120"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionClosed, out.Action)
	assert.True(t, out.Overdraft)
	assert.Equal(t, int64(0), out.Position.Quantity)
}

func TestApply_BuyCoveringShortCloses(t *testing.T) {
	a := testApplier(OverdraftReject)

	out, err := a.Apply(held(-4, "100", "100"), executed(models.SideBuy, "RELIANCE", 4, "90"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionClosed, out.Action)
}

// held -5 then BUY 10 @ 200 must not come out as 5 @ 300.
func TestApply_BuyIntoShortRejected(t *testing.T) {
	tests := []struct {
		name string
		qty  int64
	}{
		{"crossing to long", 10},
		{"partial cover", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testApplier(OverdraftReject)

			out, err := a.Apply(held(-5, "100", "100"), executed(models.SideBuy, "RELIANCE", tt.qty, "200"))
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, models.ErrShortPosition), "got %v", err)
		})
	}
}

func TestApply_InvalidOrders(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *models.Order)
		want   error
	}{
		{"zero quantity", func(o *models.Order) { o.Quantity = 0 }, models.ErrInvalidOrder},
		{"negative quantity", func(o *models.Order) { o.Quantity = -1 }, models.ErrInvalidOrder},
		{"negative price", func(o *models.Order) { o.Price = dec("-0.01") }, models.ErrInvalidOrder},
		{"negative last traded price", func(o *models.Order) { o.LastTradedPrice = decPtr("-1") }, models.ErrInvalidOrder},
		{"unknown side", func(o *models.Order) { o.Side = "HOLD" }, models.ErrInvalidOrder},
		{"empty instrument", func(o *models.Order) { o.Instrument = "  " }, models.ErrInvalidOrder},
		{"open order", func(o *models.Order) { o.Status = models.OrderStatusOpen }, models.ErrOrderNotExecuted},
		{"cancelled order", func(o *models.Order) { o.Status = models.OrderStatusCancelled }, models.ErrOrderNotExecuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testApplier(OverdraftReject)
			order := executed(models.SideBuy, "RELIANCE", 10, "100")
			tt.mutate(&order)

			out, err := a.Apply(held(10, "100", "100"), order)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.want), "want %v, got %v", tt.want, err)
		})
	}
}

func TestApply_ZeroPriceBuyAllowed(t *testing.T) {
	a := testApplier(OverdraftReject)

	out, err := a.Apply(nil, executed(models.SideBuy, "BONUS", 5, "0"))
	require.NoError(t, err)
	assertDecimal(t, "0", out.Position.UnrealizedPnLPct, "unrealized_pnl_pct")
}

func TestApply_SellNeverMovesAverage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.Int64Range(2, 1_000_000).Draw(t, "held_qty")
		avg := decimal.New(rapid.Int64Range(0, 100_000_000).Draw(t, "avg_e4"), -4)
		sellQty := rapid.Int64Range(1, qty-1).Draw(t, "sell_qty")
		sellPrice := decimal.New(rapid.Int64Range(0, 10_000_000).Draw(t, "sell_paise"), -2)

		existing := &models.Position{ID: "p", Instrument: "X", Quantity: qty, AveragePrice: avg, MarkPrice: avg}
		order := models.Order{Side: models.SideSell, Instrument: "X", Quantity: sellQty, Price: sellPrice, Status: models.OrderStatusExecuted}

		out, err := testApplier(OverdraftReject).Apply(existing, order)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Position.AveragePrice.String() != avg.String() {
			t.Fatalf("average moved from %s to %s", avg, out.Position.AveragePrice)
		}
		if out.Position.Quantity != qty-sellQty {
			t.Fatalf("quantity %d, want %d", out.Position.Quantity, qty-sellQty)
		}
	})
}

func TestParseOverdraftPolicy(t *testing.T) {
	p, err := ParseOverdraftPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OverdraftReject, p)

	p, err = ParseOverdraftPolicy(" Close ")
	require.NoError(t, err)
	assert.Equal(t, OverdraftClose, p)

	_, err = ParseOverdraftPolicy("clamp")
	assert.Error(t, err)
}
