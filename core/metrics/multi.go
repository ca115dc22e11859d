package metrics

import "errors"

// MultiSink fans out reports to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCalculation forwards the report to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCalculation(rep CalculationReport) error {
	for _, s := range m.Sinks {
		if err := s.RecordCalculation(rep); err != nil {
			return err
		}
	}
	return nil
}

// RecordReserve forwards reserve reports when supported by the sink.
func (m *MultiSink) RecordReserve(rep ReserveReport) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ReserveRecorder); ok {
			if err := rec.RecordReserve(rep); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := Close(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases s when it implements Close() error or Close().
func Close(s MetricsSink) error {
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
