package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	return Order{
		Side:       SideBuy,
		Instrument: "RELIANCE",
		Quantity:   10,
		Price:      decimal.NewFromInt(100),
		Status:     OrderStatusExecuted,
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide(" sell ")
	require.NoError(t, err)
	assert.Equal(t, SideSell, s)

	_, err = ParseSide("short")
	assert.Error(t, err)
}

func TestOrder_Normalize(t *testing.T) {
	o := Order{Side: "buy", Status: " executed", Instrument: " TCS "}
	o.Normalize()

	assert.Equal(t, SideBuy, o.Side)
	assert.Equal(t, OrderStatusExecuted, o.Status)
	assert.Equal(t, "TCS", o.Instrument)
}

func TestOrder_MarkPrice(t *testing.T) {
	o := validOrder()
	assert.True(t, o.MarkPrice().Equal(decimal.NewFromInt(100)))

	ltp := decimal.NewFromInt(104)
	o.LastTradedPrice = &ltp
	assert.True(t, o.MarkPrice().Equal(ltp))
}

func TestOrder_Validate(t *testing.T) {
	neg := decimal.NewFromInt(-1)

	tests := []struct {
		name   string
		mutate func(*Order)
		want   error
	}{
		{"valid", func(*Order) {}, nil},
		{"zero price", func(o *Order) { o.Price = decimal.Zero }, nil},
		{"bad side", func(o *Order) { o.Side = "HOLD" }, ErrInvalidOrder},
		{"blank instrument", func(o *Order) { o.Instrument = "  " }, ErrInvalidOrder},
		{"zero quantity", func(o *Order) { o.Quantity = 0 }, ErrInvalidOrder},
		{"negative quantity", func(o *Order) { o.Quantity = -5 }, ErrInvalidOrder},
		{"negative price", func(o *Order) { o.Price = neg }, ErrInvalidOrder},
		{"negative ltp", func(o *Order) { o.LastTradedPrice = &neg }, ErrInvalidOrder},
		{"open", func(o *Order) { o.Status = OrderStatusOpen }, ErrOrderNotExecuted},
		{"cancelled", func(o *Order) { o.Status = OrderStatusCancelled }, ErrOrderNotExecuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			err := o.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
