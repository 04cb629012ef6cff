// Package position reconciles executed orders and duplicate records into
// one live position per instrument.
package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradebook/internal/models"
)

// MergeLots folds lots into a single holding priced at their
// quantity-weighted average: Σ(q·p) / Σq. Quantities are summed as signed
// integers. Nothing is rounded here; rounding belongs to presentation.
//
// A set of lots netting to zero quantity has no average and returns
// models.ErrDegenerateGroup.
func MergeLots(lots ...models.Lot) (models.Lot, error) {
	var qty int64
	cost := decimal.Zero
	for _, l := range lots {
		qty += l.Quantity
		cost = cost.Add(l.Cost())
	}

	if qty == 0 {
		return models.Lot{}, fmt.Errorf("%w: %d lots", models.ErrDegenerateGroup, len(lots))
	}

	return models.Lot{
		Quantity: qty,
		Price:    cost.Div(decimal.NewFromInt(qty)),
	}, nil
}
