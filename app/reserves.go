package app

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/meritorder/core/dispatch"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/scenario"
)

// absorbSurplus stores must-run production exceeding demand in the
// reserves, frame by frame. Each frame's surplus fills the reserves in
// declaration order and whatever does not fit is spilled.
func absorbSurplus(o *dispatch.Order, reserves []scenario.NamedReserve) []coremetrics.ReserveReport {
	if len(reserves) == 0 {
		return nil
	}
	reports := make([]coremetrics.ReserveReport, len(reserves))
	for i, nr := range reserves {
		reports[i] = coremetrics.ReserveReport{Key: nr.Key, Volume: nr.Reserve.Volume()}
	}
	for f := 0; f < o.Horizon(); f++ {
		surplus := -o.ResidualAt(f)
		if surplus <= 0 {
			continue
		}
		for i, nr := range reserves {
			if surplus <= 0 {
				break
			}
			added := nr.Reserve.Add(f, surplus)
			reports[i].Absorbed += added
			surplus -= added
		}
		if surplus > 0 {
			// Surplus left after every reserve counts against the last one.
			reports[len(reports)-1].Spilled += surplus
		}
	}
	for i, nr := range reserves {
		r := nr.Reserve
		levels := r.Levels()
		for f := 1; f < len(levels); f++ {
			reports[i].Decayed += r.DecayAt(f)
		}
		reports[i].Final = levels[len(levels)-1]
		reports[i].Peak = floats.Max(levels)
	}
	return reports
}
