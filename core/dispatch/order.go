package dispatch

import (
	"fmt"
	"sort"

	"github.com/kilianp07/meritorder/core/model"
)

// NoPriceSetter marks a frame in which demand could not be met.
const NoPriceSetter = -1

// Order holds the participants of a merit order and, after a calculation,
// the index of the price-setting dispatchable in every frame.
//
// Dispatchables are drained in the order they are stored. Callers must add
// them in non-decreasing cost order unless the engine is configured to sort.
type Order struct {
	AlwaysOns     []*model.AlwaysOn
	Consumers     []*model.Consumer
	Dispatchables []*model.Dispatchable

	horizon      int
	priceSetters []int
}

// NewOrder creates an empty order covering horizon frames.
func NewOrder(horizon int) (*Order, error) {
	if err := model.ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	ps := make([]int, horizon)
	for i := range ps {
		ps[i] = NoPriceSetter
	}
	return &Order{horizon: horizon, priceSetters: ps}, nil
}

// Horizon returns the number of frames in the order.
func (o *Order) Horizon() int { return o.horizon }

// AddAlwaysOn appends an always-on producer.
func (o *Order) AddAlwaysOn(ao *model.AlwaysOn) {
	o.AlwaysOns = append(o.AlwaysOns, ao)
}

// AddConsumer appends a consumer.
func (o *Order) AddConsumer(c *model.Consumer) {
	o.Consumers = append(o.Consumers, c)
}

// AddDispatchable appends a dispatchable producer.
func (o *Order) AddDispatchable(d *model.Dispatchable) {
	o.Dispatchables = append(o.Dispatchables, d)
}

// DemandAt returns the total demand for energy in frame.
func (o *Order) DemandAt(frame int) float64 {
	var sum float64
	for _, c := range o.Consumers {
		sum += c.LoadAt(frame)
	}
	return sum
}

// AlwaysOnAt returns the total must-run production in frame.
func (o *Order) AlwaysOnAt(frame int) float64 {
	var sum float64
	for _, ao := range o.AlwaysOns {
		sum += ao.LoadAt(frame)
	}
	return sum
}

// ResidualAt is the demand left for dispatchables in frame. It is negative
// when must-run production exceeds demand.
func (o *Order) ResidualAt(frame int) float64 {
	return o.DemandAt(frame) - o.AlwaysOnAt(frame)
}

// PriceSetter returns the index of the marginal dispatchable in frame. The
// boolean is false when demand was not met or frame was not calculated.
func (o *Order) PriceSetter(frame int) (int, bool) {
	idx := o.priceSetters[frame]
	return idx, idx != NoPriceSetter
}

// PriceSetterKey returns the key of the marginal dispatchable in frame.
func (o *Order) PriceSetterKey(frame int) (string, bool) {
	idx, ok := o.PriceSetter(frame)
	if !ok || idx >= len(o.Dispatchables) {
		return "", false
	}
	return o.Dispatchables[idx].Key, true
}

// PriceSetters returns a copy of the per-frame price setter indices.
func (o *Order) PriceSetters() []int {
	out := make([]int, len(o.priceSetters))
	copy(out, o.priceSetters)
	return out
}

// Reset clears dispatchable loads and price setters so the order can be
// calculated again.
func (o *Order) Reset() {
	for _, d := range o.Dispatchables {
		d.ResetLoad()
	}
	for i := range o.priceSetters {
		o.priceSetters[i] = NoPriceSetter
	}
}

// SortDispatchables orders dispatchables by ascending cost. Equal costs keep
// their insertion order. Price setter indices from an earlier calculation
// refer to the old order, so sort before calculating.
func (o *Order) SortDispatchables() {
	sort.SliceStable(o.Dispatchables, func(i, j int) bool {
		return o.Dispatchables[i].Cost() < o.Dispatchables[j].Cost()
	})
}

// Validate checks every participant covers the order's horizon.
func (o *Order) Validate() error {
	for _, ao := range o.AlwaysOns {
		if err := ao.Validate(o.horizon); err != nil {
			return fmt.Errorf("always-on: %w", err)
		}
	}
	for _, c := range o.Consumers {
		if err := c.Validate(o.horizon); err != nil {
			return fmt.Errorf("consumer: %w", err)
		}
	}
	for _, d := range o.Dispatchables {
		if d.Horizon() != o.horizon {
			return fmt.Errorf("dispatchable %s: %w: got %d frames, want %d",
				d.Key, model.ErrProfileLength, d.Horizon(), o.horizon)
		}
	}
	return nil
}
