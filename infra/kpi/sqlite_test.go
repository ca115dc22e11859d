package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meritorder/core/dispatch"
	"github.com/kilianp07/meritorder/core/factory"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
)

func TestRecordCalculationAggregatesDays(t *testing.T) {
	store, err := NewSQLiteStore("file:kpi_days.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	rep := coremetrics.CalculationReport{
		Scenario: "base",
		Start:    start,
		Keys:     []string{"coal", "gas"},
		Frames: []dispatch.FrameResult{
			{Frame: 0, PriceSetter: "gas", Loads: []float64{10, 5}},
			{Frame: 1, PriceSetter: "coal", Loads: []float64{8, 0}},
			{Frame: 2, PriceSetter: "gas", Loads: []float64{10, 7}},
		},
	}
	require.NoError(t, store.RecordCalculation(rep))

	coal, err := store.Query("base", "coal", start, start.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, coal, 2)
	assert.Equal(t, 18.0, coal[0].Energy)
	assert.Equal(t, 1, coal[0].PriceSetting)
	assert.Equal(t, Day(start), coal[0].Day)
	assert.Equal(t, 10.0, coal[1].Energy)
	assert.Equal(t, 0, coal[1].PriceSetting)

	require.NoError(t, store.RecordCalculation(rep))
	gas, err := store.Query("base", "gas", start, start.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, gas, 2)
	assert.Equal(t, 10.0, gas[0].Energy)
	assert.Equal(t, 2, gas[0].PriceSetting)
	assert.Equal(t, 14.0, gas[1].Energy)
}

func TestAddAccumulates(t *testing.T) {
	store, err := NewSQLiteStore("file:kpi_add.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	day := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(Record{Scenario: "s", Key: "k", Day: day, Energy: 1, PriceSetting: 1}))
	require.NoError(t, store.Add(Record{Scenario: "s", Key: "k", Day: day.Add(time.Hour), Energy: 2}))
	res, err := store.Query("s", "k", day, day)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 3.0, res[0].Energy)
	assert.Equal(t, 1, res[0].PriceSetting)
}

func TestFactoryRegistration(t *testing.T) {
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{
		{Type: "kpi", Conf: map[string]any{"path": "file:kpi_factory.db?mode=memory&cache=shared"}},
	})
	require.NoError(t, err)
	_, ok := sink.(*SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, coremetrics.Close(sink))
}
