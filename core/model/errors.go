package model

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameOutOfRange is returned when a frame index is not in [0, horizon).
	ErrFrameOutOfRange = errors.New("frame out of range")
	// ErrInvalidHorizon is returned for non-positive horizons.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrProfileLength is returned when a profile does not cover the horizon exactly.
	ErrProfileLength = errors.New("profile length does not match horizon")
)

// FrameError reports an access at Frame outside a horizon of Horizon frames.
type FrameError struct {
	Frame   int
	Horizon int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d not in [0, %d)", e.Frame, e.Horizon)
}

// Unwrap allows errors.Is(err, ErrFrameOutOfRange).
func (e *FrameError) Unwrap() error { return ErrFrameOutOfRange }
