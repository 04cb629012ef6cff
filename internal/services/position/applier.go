package position

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/models"
)

// OverdraftPolicy decides what a SELL larger than the held quantity does.
type OverdraftPolicy string

const (
	// OverdraftReject fails the order with models.ErrOverdraft and writes nothing.
	OverdraftReject OverdraftPolicy = common.OverdraftReject
	// OverdraftClose closes the position and flags the outcome.
	OverdraftClose OverdraftPolicy = common.OverdraftClose
)

// ParseOverdraftPolicy maps a config value onto a policy. Empty means reject.
func ParseOverdraftPolicy(s string) (OverdraftPolicy, error) {
	switch p := OverdraftPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", OverdraftReject:
		return OverdraftReject, nil
	case OverdraftClose:
		return OverdraftClose, nil
	default:
		return "", fmt.Errorf("unknown overdraft policy %q", s)
	}
}

// Applier computes the effect of one executed order on the live position
// for its instrument. It performs no I/O: the caller supplies the current
// position and performs the single write the Outcome describes.
type Applier struct {
	Policy OverdraftPolicy
	Now    func() time.Time
	NewID  func() string
}

// NewApplier returns an Applier using the wall clock and random UUIDs.
func NewApplier(policy OverdraftPolicy) Applier {
	return Applier{
		Policy: policy,
		Now:    time.Now,
		NewID:  func() string { return uuid.New().String() },
	}
}

// Apply applies order to existing, which is nil when no live position is
// held. The returned Outcome carries the position as it should be after the
// write: created and updated positions are upserted, closed ones deleted.
func (a Applier) Apply(existing *models.Position, order models.Order) (*models.Outcome, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	now := a.now()

	if existing == nil {
		if order.Side == models.SideSell {
			return nil, fmt.Errorf("%w: %s", models.ErrNoPositionToSell, order.Instrument)
		}
		return a.open(order, now), nil
	}

	if order.Side == models.SideBuy {
		return a.buy(existing, order, now)
	}
	return a.sell(existing, order, now)
}

func (a Applier) open(order models.Order, now time.Time) *models.Outcome {
	p := &models.Position{
		ID:           a.newID(),
		Instrument:   order.Instrument,
		Quantity:     order.Quantity,
		AveragePrice: order.Price,
		MarkPrice:    order.MarkPrice(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Revalue()
	return &models.Outcome{Action: models.ActionCreated, Position: p}
}

func (a Applier) buy(existing *models.Position, order models.Order, now time.Time) (*models.Outcome, error) {
	if existing.Quantity < 0 {
		// A BUY that exactly covers a legacy short has no average to compute.
		// Anything else would need short-side accounting, which is not modelled.
		if existing.Quantity+order.Quantity != 0 {
			return nil, fmt.Errorf("%w: buy %d %s, held %d", models.ErrShortPosition, order.Quantity, order.Instrument, existing.Quantity)
		}
		p := a.touch(existing, order, now)
		p.Quantity = 0
		p.Revalue()
		return &models.Outcome{Action: models.ActionClosed, Position: p}, nil
	}

	p := a.touch(existing, order, now)

	merged, err := MergeLots(existing.Lot(), order.Lot())
	if err != nil {
		return nil, err
	}
	p.Quantity = merged.Quantity
	p.AveragePrice = merged.Price
	p.Revalue()

	return &models.Outcome{Action: models.ActionUpdated, Position: p}, nil
}

func (a Applier) sell(existing *models.Position, order models.Order, now time.Time) (*models.Outcome, error) {
	remaining := existing.Quantity - order.Quantity

	if remaining < 0 && a.Policy != OverdraftClose {
		return nil, fmt.Errorf("%w: sell %d %s, held %d", models.ErrOverdraft, order.Quantity, order.Instrument, existing.Quantity)
	}

	p := a.touch(existing, order, now)

	if remaining <= 0 {
		p.Quantity = 0
		p.Revalue()
		return &models.Outcome{Action: models.ActionClosed, Position: p, Overdraft: remaining < 0}, nil
	}

	// Average price is left alone on the way down.
	p.Quantity = remaining
	p.Revalue()
	return &models.Outcome{Action: models.ActionUpdated, Position: p}, nil
}

// touch copies existing with the order's mark price and the next version.
func (a Applier) touch(existing *models.Position, order models.Order, now time.Time) *models.Position {
	p := existing.Clone()
	p.MarkPrice = order.MarkPrice()
	p.Version++
	p.UpdatedAt = now
	return p
}

func (a Applier) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

func (a Applier) newID() string {
	if a.NewID == nil {
		return uuid.New().String()
	}
	return a.NewID()
}
