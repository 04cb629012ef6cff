package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalises a side string ("buy", " SELL ") into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Valid reports whether the side is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderStatus is the lifecycle state of an order as reported by order management.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// Order is an executed (or not) order as supplied by order management.
// Once executed it is an immutable fact; only executed orders change positions.
type Order struct {
	ID              string           `json:"id,omitempty"`
	Side            Side             `json:"side"`
	Instrument      string           `json:"instrument"`
	Quantity        int64            `json:"quantity"`
	Price           decimal.Decimal  `json:"price"`
	LastTradedPrice *decimal.Decimal `json:"last_traded_price,omitempty"` // seeds the position's mark price
	Status          OrderStatus      `json:"status"`
	ExecutedAt      time.Time        `json:"executed_at,omitempty"`
}

// MarkPrice returns the price the resulting position should be marked at:
// the last traded price when supplied, the execution price otherwise.
func (o Order) MarkPrice() decimal.Decimal {
	if o.LastTradedPrice != nil {
		return *o.LastTradedPrice
	}
	return o.Price
}

// Lot returns the (quantity, price) lot this order acquires or disposes.
func (o Order) Lot() Lot {
	return Lot{Quantity: o.Quantity, Price: o.Price}
}

// Normalize upper-cases side and status and trims the instrument, so
// "buy"/"executed" from loosely typed feeds match.
func (o *Order) Normalize() {
	o.Side = Side(strings.ToUpper(strings.TrimSpace(string(o.Side))))
	o.Status = OrderStatus(strings.ToUpper(strings.TrimSpace(string(o.Status))))
	o.Instrument = strings.TrimSpace(o.Instrument)
}

// Validate checks the order is well formed and executed.
func (o Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}
	if strings.TrimSpace(o.Instrument) == "" {
		return fmt.Errorf("%w: instrument is required", ErrInvalidOrder)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidOrder, o.Price)
	}
	if o.LastTradedPrice != nil && o.LastTradedPrice.IsNegative() {
		return fmt.Errorf("%w: last traded price must not be negative, got %s", ErrInvalidOrder, o.LastTradedPrice)
	}
	if o.Status != OrderStatusExecuted {
		return fmt.Errorf("%w: status %q", ErrOrderNotExecuted, o.Status)
	}
	return nil
}
