package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meritorder/core/model"
)

func TestSummarize(t *testing.T) {
	o, _ := NewOrder(4)
	o.AddConsumer(model.NewConsumer("c", []float64{1, 2, 3, 0}, 10))
	o.AddAlwaysOn(model.NewAlwaysOn("ao", []float64{1, 1, 1, 1}, 5))
	o.AddDispatchable(model.NewDispatchable("base", 1, 10, 1, 4))
	o.AddDispatchable(model.NewDispatchable("peak", 2, 5, 2, 4))
	require.NoError(t, Calculate(o))

	// residuals: 5, 15, 25, -5
	s := Summarize(o)
	assert.Equal(t, 4, s.Horizon)
	assert.Equal(t, []int{2}, s.ShortageFrames)
	assert.True(t, s.Shortage())
	assert.InDelta(t, 10.0, s.MeanResidual, 1e-9)
	assert.Equal(t, 25.0, s.PeakResidual)
	assert.Equal(t, 5.0, s.SurplusEnergy)

	require.Len(t, s.Dispatchables, 2)
	base, peak := s.Dispatchables[0], s.Dispatchables[1]
	assert.Equal(t, 25.0, base.Energy)
	assert.Equal(t, 2, base.PriceSettingFrames)
	assert.InDelta(t, 25.0/40.0, base.CapacityFactor, 1e-9)
	assert.Equal(t, 15.0, peak.Energy)
	assert.Equal(t, 1, peak.PriceSettingFrames)
	assert.Equal(t, 10.0, peak.TotalCapacity)
}

func TestFrames(t *testing.T) {
	o, _ := NewOrder(2)
	o.AddConsumer(model.NewConsumer("c", []float64{1, 3}, 10))
	o.AddAlwaysOn(model.NewAlwaysOn("ao", []float64{0.5, 0.5}, 10))
	o.AddDispatchable(model.NewDispatchable("base", 1, 10, 1, 2))
	require.NoError(t, Calculate(o))

	frames := Frames(o)
	require.Len(t, frames, 2)
	assert.Equal(t, FrameResult{Frame: 0, Demand: 10, AlwaysOn: 5, Residual: 5, PriceSetter: "base", Loads: []float64{5}}, frames[0])
	assert.Equal(t, "", frames[1].PriceSetter)
	assert.Equal(t, []float64{10}, frames[1].Loads)
	assert.Equal(t, []string{"base"}, DispatchableKeys(o))
}
