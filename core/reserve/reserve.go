// Package reserve models stored energy with a volume ceiling and decay over
// a horizon of frames.
package reserve

import (
	"errors"
	"fmt"

	"github.com/kilianp07/meritorder/core/model"
)

// ErrInvalidVolume is returned for negative volumes.
var ErrInvalidVolume = errors.New("invalid reserve volume")

// Reserve is a capacity-bounded energy store. The amount stored in a frame
// is derived lazily from the previous frame minus decay, and cached once
// resolved. A Reserve is not safe for concurrent use.
//
// Frame arguments outside [0, Horizon()) panic with a *model.FrameError,
// like an out-of-range slice index. Use Check to validate first.
type Reserve struct {
	volume  float64
	horizon int
	decay   DecayRule
	store   map[int]float64
}

// New creates an empty reserve. A nil decay rule means no decay.
func New(volume float64, decay DecayRule, horizon int) (*Reserve, error) {
	if err := model.ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	if volume < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVolume, volume)
	}
	if decay == nil {
		decay = NoDecay{}
	}
	return &Reserve{
		volume:  volume,
		horizon: horizon,
		decay:   decay,
		store:   map[int]float64{0: 0},
	}, nil
}

// NewWithoutDecay creates a reserve that never loses energy.
func NewWithoutDecay(volume float64, horizon int) (*Reserve, error) {
	return New(volume, NoDecay{}, horizon)
}

// Volume returns the maximum amount of energy the reserve can hold.
func (r *Reserve) Volume() float64 { return r.volume }

// Horizon returns the number of frames covered.
func (r *Reserve) Horizon() int { return r.horizon }

// Check returns a *model.FrameError when frame is out of range.
func (r *Reserve) Check(frame int) error {
	return model.CheckFrame(frame, r.horizon)
}

func (r *Reserve) mustFrame(frame int) {
	if err := r.Check(frame); err != nil {
		panic(err)
	}
}

// At returns how much energy is stored at the end of frame. Unresolved
// frames are computed from the nearest resolved predecessor and cached; the
// decay rule runs once per newly resolved frame. Later changes to a frame do
// not propagate to frames already resolved.
func (r *Reserve) At(frame int) float64 {
	r.mustFrame(frame)
	if v, ok := r.store[frame]; ok {
		return v
	}
	start := frame
	for {
		if _, ok := r.store[start]; ok {
			break
		}
		if start == 0 {
			r.store[0] = 0
			break
		}
		start--
	}
	for f := start + 1; f <= frame; f++ {
		prev := r.store[f-1]
		r.store[f] = prev - r.decayFrom(f, prev)
	}
	return r.store[frame]
}

// Resolved reports whether frame has a cached value.
func (r *Reserve) Resolved(frame int) bool {
	_, ok := r.store[frame]
	return ok
}

// Set overwrites the amount stored in frame. The volume is not enforced.
func (r *Reserve) Set(frame int, amount float64) {
	r.mustFrame(frame)
	r.store[frame] = amount
}

// Add stores up to amount in frame without exceeding the volume. It returns
// the amount actually added. Negative amounts add nothing; use Take.
func (r *Reserve) Add(frame int, amount float64) float64 {
	r.mustFrame(frame)
	if amount < 0 {
		return 0
	}
	stored := r.At(frame)
	assign := amount
	if stored+amount > r.volume {
		assign = r.volume - stored
	}
	r.store[frame] = stored + assign
	return assign
}

// Take removes up to amount from frame and returns what was removed, which
// is less than asked for when too little is stored. Negative amounts take
// nothing.
func (r *Reserve) Take(frame int, amount float64) float64 {
	r.mustFrame(frame)
	if amount < 0 {
		return 0
	}
	stored := r.At(frame)
	if stored > amount {
		r.store[frame] = stored - amount
		return amount
	}
	r.store[frame] = 0
	return stored
}

// DecayAt returns how much energy decays at the beginning of frame. It never
// exceeds what was stored at the end of the previous frame.
func (r *Reserve) DecayAt(frame int) float64 {
	r.mustFrame(frame)
	if frame == 0 {
		return 0
	}
	return r.decayFrom(frame, r.At(frame-1))
}

func (r *Reserve) decayFrom(frame int, stored float64) float64 {
	d := r.decay.Decay(frame, stored)
	if d < 0 {
		return 0
	}
	if stored < d {
		return stored
	}
	return d
}

// Levels resolves every frame and returns the stored amounts.
func (r *Reserve) Levels() []float64 {
	out := make([]float64, r.horizon)
	for f := range out {
		out[f] = r.At(f)
	}
	return out
}
