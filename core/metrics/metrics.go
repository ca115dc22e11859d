package metrics

import (
	"time"

	"github.com/kilianp07/meritorder/core/dispatch"
)

// CalculationReport describes one completed merit-order calculation.
type CalculationReport struct {
	RunID    string
	Scenario string
	// Start is the wall-clock time of frame 0; frame f starts f hours later.
	Start    time.Time
	Duration time.Duration
	Keys     []string
	Summary  dispatch.Summary
	Frames   []dispatch.FrameResult
}

// FrameTime returns the timestamp of frame.
func (r CalculationReport) FrameTime(frame int) time.Time {
	return r.Start.Add(time.Duration(frame) * time.Hour)
}

// MetricsSink records calculation results for observability purposes.
type MetricsSink interface {
	RecordCalculation(rep CalculationReport) error
}

// ReserveReport describes how a reserve absorbed surplus must-run energy
// during a calculation.
type ReserveReport struct {
	RunID    string
	Scenario string
	Key      string
	Volume   float64
	// Absorbed is the surplus energy actually stored.
	Absorbed float64
	// Spilled is the surplus energy that did not fit.
	Spilled float64
	Decayed float64
	Final   float64
	Peak    float64
	Time    time.Time
}

// ReserveRecorder is implemented by sinks able to record reserve reports.
type ReserveRecorder interface {
	RecordReserve(rep ReserveReport) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCalculation(CalculationReport) error { return nil }

// Ensure NopSink implements ReserveRecorder.
func (NopSink) RecordReserve(ReserveReport) error { return nil }
