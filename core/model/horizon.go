package model

import "fmt"

// DefaultHorizon is the number of hourly frames in a non-leap year.
const DefaultHorizon = 8760

// ValidateHorizon checks that h can size per-frame arrays.
func ValidateHorizon(h int) error {
	if h <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHorizon, h)
	}
	return nil
}

// CheckFrame returns a *FrameError when frame lies outside [0, horizon).
func CheckFrame(frame, horizon int) error {
	if frame < 0 || frame >= horizon {
		return &FrameError{Frame: frame, Horizon: horizon}
	}
	return nil
}
