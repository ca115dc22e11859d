package model

import "fmt"

// AlwaysOn is a must-run producer whose output follows a fixed profile.
type AlwaysOn struct {
	Key             string
	profile         []float64
	totalProduction float64
}

// NewAlwaysOn creates a must-run producer. The profile is normally in [0,1]
// but this is not enforced.
func NewAlwaysOn(key string, profile []float64, totalProduction float64) *AlwaysOn {
	return &AlwaysOn{Key: key, profile: profile, totalProduction: totalProduction}
}

// LoadAt returns the production in frame.
func (a *AlwaysOn) LoadAt(frame int) float64 {
	return a.profile[frame] * a.totalProduction
}

// TotalProduction returns the nameplate magnitude the profile is scaled by.
func (a *AlwaysOn) TotalProduction() float64 { return a.totalProduction }

// Validate checks the profile covers exactly horizon frames.
func (a *AlwaysOn) Validate(horizon int) error {
	return checkProfile(a.Key, a.profile, horizon)
}

// Consumer represents exogenous demand.
type Consumer struct {
	Key         string
	profile     []float64
	totalDemand float64
}

// NewConsumer creates a consumer with the given demand profile.
func NewConsumer(key string, profile []float64, totalDemand float64) *Consumer {
	return &Consumer{Key: key, profile: profile, totalDemand: totalDemand}
}

// LoadAt returns the demand in frame.
func (c *Consumer) LoadAt(frame int) float64 {
	return c.profile[frame] * c.totalDemand
}

// TotalDemand returns the magnitude the profile is scaled by.
func (c *Consumer) TotalDemand() float64 { return c.totalDemand }

// Validate checks the profile covers exactly horizon frames.
func (c *Consumer) Validate(horizon int) error {
	return checkProfile(c.Key, c.profile, horizon)
}

// Dispatchable is a controllable producer whose load is assigned by the
// dispatch engine. Cost is only used to order dispatchables.
type Dispatchable struct {
	Key      string
	cost     float64
	capacity float64
	units    float64
	load     []float64
}

// NewDispatchable creates a dispatchable with a zeroed load curve of horizon
// frames. horizon must be positive; see ValidateHorizon.
func NewDispatchable(key string, cost, capacity, units float64, horizon int) *Dispatchable {
	return &Dispatchable{
		Key:      key,
		cost:     cost,
		capacity: capacity,
		units:    units,
		load:     make([]float64, horizon),
	}
}

// Cost returns the marginal cost.
func (d *Dispatchable) Cost() float64 { return d.cost }

// Capacity returns the capacity of a single unit.
func (d *Dispatchable) Capacity() float64 { return d.capacity }

// Units returns the number of units.
func (d *Dispatchable) Units() float64 { return d.units }

// TotalCapacity is the capacity of all units combined.
func (d *Dispatchable) TotalCapacity() float64 {
	return d.capacity * d.units
}

// Horizon returns the number of frames in the load curve.
func (d *Dispatchable) Horizon() int { return len(d.load) }

// SetLoadAt assigns amount to frame. Nothing is written when frame is out of
// range. The total capacity is not checked here.
func (d *Dispatchable) SetLoadAt(frame int, amount float64) (float64, error) {
	if err := CheckFrame(frame, len(d.load)); err != nil {
		return 0, fmt.Errorf("dispatchable %s: %w", d.Key, err)
	}
	d.load[frame] = amount
	return amount, nil
}

// LoadAt returns the assigned load in frame.
func (d *Dispatchable) LoadAt(frame int) float64 {
	return d.load[frame]
}

// Loads returns a copy of the load curve.
func (d *Dispatchable) Loads() []float64 {
	out := make([]float64, len(d.load))
	copy(out, d.load)
	return out
}

// ResetLoad zeroes every frame.
func (d *Dispatchable) ResetLoad() {
	for i := range d.load {
		d.load[i] = 0
	}
}

func checkProfile(key string, profile []float64, horizon int) error {
	if len(profile) != horizon {
		return fmt.Errorf("%s: %w: got %d frames, want %d", key, ErrProfileLength, len(profile), horizon)
	}
	return nil
}
