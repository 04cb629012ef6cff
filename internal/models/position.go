// Package models defines data structures for Tradebook
package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Lot is one acquisition event: a quantity bought at a price.
type Lot struct {
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Cost returns quantity × price.
func (l Lot) Cost() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Position is the live holding of one instrument.
// At most one live position exists per instrument and a position with zero
// quantity is deleted rather than kept.
type Position struct {
	ID               string          `json:"id"`
	Instrument       string          `json:"instrument"`
	Quantity         int64           `json:"quantity"`
	AveragePrice     decimal.Decimal `json:"average_price"`      // cost basis per unit
	MarkPrice        decimal.Decimal `json:"mark_price"`         // last known traded price
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`     // quantity × (mark − average)
	UnrealizedPnLPct decimal.Decimal `json:"unrealized_pnl_pct"` // pnl / (quantity × average) × 100
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Lot returns the position's holding as a single lot at its average price.
func (p Position) Lot() Lot {
	return Lot{Quantity: p.Quantity, Price: p.AveragePrice}
}

// CostBasis returns quantity × average price.
func (p Position) CostBasis() decimal.Decimal {
	return p.Lot().Cost()
}

// Revalue recomputes the unrealized P&L fields from quantity, mark and average.
// They are never carried forward on their own.
func (p *Position) Revalue() {
	qty := decimal.NewFromInt(p.Quantity)
	p.UnrealizedPnL = qty.Mul(p.MarkPrice.Sub(p.AveragePrice))

	basis := qty.Mul(p.AveragePrice)
	if basis.IsZero() {
		p.UnrealizedPnLPct = decimal.Zero
		return
	}
	p.UnrealizedPnLPct = p.UnrealizedPnL.Div(basis).Mul(hundred)
}

// Clone returns a copy of the position safe to mutate.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// SortPositions orders positions by instrument, then creation time, then id:
// the listing order every store returns.
func SortPositions(list []*Position) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
