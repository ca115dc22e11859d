package reserve

// DecayRule computes how much stored energy is lost at the start of frame,
// given the amount stored at the end of the previous frame. Implementations
// must be pure: the same inputs always give the same non-negative result.
type DecayRule interface {
	Decay(frame int, stored float64) float64
}

// DecayFunc adapts a function to DecayRule.
type DecayFunc func(frame int, stored float64) float64

// Decay calls f.
func (f DecayFunc) Decay(frame int, stored float64) float64 { return f(frame, stored) }

// NoDecay keeps stored energy forever.
type NoDecay struct{}

// Decay always returns zero.
func (NoDecay) Decay(int, float64) float64 { return 0 }

// ConstantDecay loses a fixed amount every frame.
type ConstantDecay float64

// Decay returns the constant amount.
func (c ConstantDecay) Decay(int, float64) float64 { return float64(c) }

// ProportionalDecay loses a fraction of the stored amount every frame, as in
// battery self-discharge.
type ProportionalDecay float64

// Decay returns rate * stored.
func (p ProportionalDecay) Decay(_ int, stored float64) float64 { return float64(p) * stored }
