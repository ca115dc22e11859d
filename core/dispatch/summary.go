package dispatch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DispatchableSummary aggregates the load curve of one dispatchable.
type DispatchableSummary struct {
	Key           string  `json:"key"`
	Cost          float64 `json:"cost"`
	TotalCapacity float64 `json:"total_capacity"`
	// Energy is the sum of the load over every frame.
	Energy float64 `json:"energy"`
	// CapacityFactor is Energy over TotalCapacity * horizon.
	CapacityFactor     float64 `json:"capacity_factor"`
	PriceSettingFrames int     `json:"price_setting_frames"`
}

// Summary describes a calculated order.
type Summary struct {
	Horizon int `json:"horizon"`
	// ShortageFrames lists frames without a price setter.
	ShortageFrames []int   `json:"shortage_frames"`
	MeanResidual   float64 `json:"mean_residual"`
	PeakResidual   float64 `json:"peak_residual"`
	// SurplusEnergy is must-run production in excess of demand, summed over frames.
	SurplusEnergy float64               `json:"surplus_energy"`
	Dispatchables []DispatchableSummary `json:"dispatchables"`
}

// Summarize computes statistics for an order that has been calculated.
func Summarize(o *Order) Summary {
	s := Summary{Horizon: o.horizon, ShortageFrames: []int{}}
	residual := make([]float64, o.horizon)
	setterCount := make([]int, len(o.Dispatchables))
	for f := 0; f < o.horizon; f++ {
		residual[f] = o.ResidualAt(f)
		if residual[f] < 0 {
			s.SurplusEnergy -= residual[f]
		}
		idx, ok := o.PriceSetter(f)
		if !ok {
			s.ShortageFrames = append(s.ShortageFrames, f)
			continue
		}
		if idx < len(setterCount) {
			setterCount[idx]++
		}
	}
	s.MeanResidual = stat.Mean(residual, nil)
	s.PeakResidual = floats.Max(residual)

	s.Dispatchables = make([]DispatchableSummary, len(o.Dispatchables))
	for i, d := range o.Dispatchables {
		ds := DispatchableSummary{
			Key:                d.Key,
			Cost:               d.Cost(),
			TotalCapacity:      d.TotalCapacity(),
			Energy:             floats.Sum(d.Loads()),
			PriceSettingFrames: setterCount[i],
		}
		if ds.TotalCapacity > 0 {
			ds.CapacityFactor = ds.Energy / (ds.TotalCapacity * float64(o.horizon))
		}
		s.Dispatchables[i] = ds
	}
	return s
}

// Shortage reports whether any frame had unmet demand.
func (s Summary) Shortage() bool { return len(s.ShortageFrames) > 0 }
