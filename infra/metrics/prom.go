package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/meritorder/core/metrics"
)

// PromSink records calculation results in Prometheus metrics.
type PromSink struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	shortage     *prometheus.GaugeVec
	priceSetting *prometheus.GaugeVec
	energy       *prometheus.GaugeVec
	reserve      *prometheus.GaugeVec
}

// NewPromSink registers calculation metrics on the default Prometheus registerer.
// The HTTP exposition is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meritorder_calculations_total",
			Help: "Total number of completed merit-order calculations",
		}, []string{"scenario"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meritorder_calculation_duration_seconds",
			Help:    "Wall-clock time of a full-horizon calculation",
			Buckets: prometheus.DefBuckets,
		}, []string{"scenario"}),
		shortage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meritorder_shortage_frames",
			Help: "Frames with unmet demand in the last calculation",
		}, []string{"scenario"}),
		priceSetting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meritorder_price_setting_frames",
			Help: "Frames in which the dispatchable set the price in the last calculation",
		}, []string{"scenario", "dispatchable"}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meritorder_dispatchable_energy",
			Help: "Energy produced by the dispatchable over the horizon in the last calculation",
		}, []string{"scenario", "dispatchable"}),
		reserve: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meritorder_reserve_energy",
			Help: "Reserve energy totals in the last calculation",
		}, []string{"scenario", "reserve", "kind"}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.shortage, err = register(reg, s.shortage); err != nil {
		return nil, err
	}
	if s.priceSetting, err = register(reg, s.priceSetting); err != nil {
		return nil, err
	}
	if s.energy, err = register(reg, s.energy); err != nil {
		return nil, err
	}
	if s.reserve, err = register(reg, s.reserve); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c is a duplicate.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCalculation updates counters and per-dispatchable gauges.
func (s *PromSink) RecordCalculation(rep coremetrics.CalculationReport) error {
	s.runs.WithLabelValues(rep.Scenario).Inc()
	s.duration.WithLabelValues(rep.Scenario).Observe(rep.Duration.Seconds())
	s.shortage.WithLabelValues(rep.Scenario).Set(float64(len(rep.Summary.ShortageFrames)))
	for _, d := range rep.Summary.Dispatchables {
		s.priceSetting.WithLabelValues(rep.Scenario, d.Key).Set(float64(d.PriceSettingFrames))
		s.energy.WithLabelValues(rep.Scenario, d.Key).Set(d.Energy)
	}
	return nil
}

// RecordReserve sets the reserve gauges.
func (s *PromSink) RecordReserve(rep coremetrics.ReserveReport) error {
	s.reserve.WithLabelValues(rep.Scenario, rep.Key, "absorbed").Set(rep.Absorbed)
	s.reserve.WithLabelValues(rep.Scenario, rep.Key, "spilled").Set(rep.Spilled)
	s.reserve.WithLabelValues(rep.Scenario, rep.Key, "decayed").Set(rep.Decayed)
	s.reserve.WithLabelValues(rep.Scenario, rep.Key, "final").Set(rep.Final)
	s.reserve.WithLabelValues(rep.Scenario, rep.Key, "peak").Set(rep.Peak)
	return nil
}
