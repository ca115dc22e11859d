package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meritorder/config"
	"github.com/kilianp07/meritorder/core/dispatch"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/core/model"
	"github.com/kilianp07/meritorder/core/reserve"
	"github.com/kilianp07/meritorder/core/results"
	"github.com/kilianp07/meritorder/infra/logger"
	"github.com/kilianp07/meritorder/scenario"
)

type recordingSink struct {
	mu       sync.Mutex
	calcs    []coremetrics.CalculationReport
	reserves []coremetrics.ReserveReport
}

func (r *recordingSink) RecordCalculation(rep coremetrics.CalculationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calcs = append(r.calcs, rep)
	return nil
}

func (r *recordingSink) RecordReserve(rep coremetrics.ReserveReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserves = append(r.reserves, rep)
	return nil
}

const surplusScenario = `name: surplus
horizon: 3
always_on:
  - {key: solar, magnitude: 30, profile: {values: [1, 0, 0.5]}}
consumers:
  - {key: town, magnitude: 10, profile: {constant: 1}}
dispatchables:
  - {key: gas, cost: 40, capacity: 5}
  - {key: peaker, cost: 90, capacity: 5}
reserves:
  - {key: battery, volume: 15}
`

const shortageScenario = `name: shortage
horizon: 3
consumers:
  - {key: town, magnitude: 10, profile: {constant: 1}}
dispatchables:
  - {key: gas, cost: 40, capacity: 5}
`

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingSink, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Results: results.Config{Path: filepath.Join(dir, "runs.jsonl")}}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	sink := &recordingSink{}
	base := []Option{
		WithSink(sink),
		WithLogger(logger.NopLogger{}),
		WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
	}
	svc, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sink, dir
}

func writeScenario(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestRunScenario(t *testing.T) {
	svc, sink, dir := newTestService(t)
	events := svc.Events()

	sc, err := scenario.Load(writeScenario(t, dir, "surplus.yaml", surplusScenario))
	require.NoError(t, err)
	out, err := svc.RunScenario(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, "surplus", out.Scenario)
	assert.False(t, out.Summary.Shortage())
	key, ok := out.Order.PriceSetterKey(1)
	require.True(t, ok)
	assert.Equal(t, "peaker", key)

	require.Len(t, out.Reserves, 1)
	assert.Equal(t, 15.0, out.Reserves[0].Absorbed)
	assert.Equal(t, 10.0, out.Reserves[0].Spilled)
	assert.Equal(t, 15.0, out.Reserves[0].Final)
	assert.Equal(t, out.RunID, out.Reserves[0].RunID)

	require.Len(t, sink.calcs, 1)
	assert.Equal(t, []string{"gas", "peaker"}, sink.calcs[0].Keys)
	assert.Len(t, sink.calcs[0].Frames, 3)
	require.Len(t, sink.reserves, 1)
	assert.Equal(t, "battery", sink.reserves[0].Key)

	recs, err := svc.History(context.Background(), results.Query{Scenario: "surplus"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, out.RunID, recs[0].ID)
	assert.Equal(t, []string{"gas", "peaker", "gas"}, recs[0].PriceSetters)
	require.Len(t, recs[0].Reserves, 1)

	select {
	case ev := <-events:
		assert.Equal(t, StatusCompleted, ev.Status)
		assert.Equal(t, out.RunID, ev.RunID)
	case <-time.After(time.Second):
		t.Fatal("no run event")
	}
}

func TestRunAll(t *testing.T) {
	svc, sink, dir := newTestService(t)
	paths := []string{
		writeScenario(t, dir, "surplus.yaml", surplusScenario),
		writeScenario(t, dir, "shortage.yaml", shortageScenario),
	}
	outs, err := svc.RunAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "surplus", outs[0].Scenario)
	assert.Equal(t, "shortage", outs[1].Scenario)
	assert.Equal(t, []int{0, 1, 2}, outs[1].Summary.ShortageFrames)
	assert.Len(t, sink.calcs, 2)

	recs, err := svc.History(context.Background(), results.Query{ShortageOnly: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "shortage", recs[0].Scenario)
	assert.Equal(t, []string{"", "", ""}, recs[0].PriceSetters)
}

func TestRunAllErrors(t *testing.T) {
	svc, _, dir := newTestService(t)
	_, err := svc.RunAll(context.Background(), nil)
	assert.Error(t, err)

	_, err = svc.RunAll(context.Background(), []string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	bad := writeScenario(t, dir, "bad.yaml", "horizon: 2\nconsumers: [{key: c, magnitude: 1, profile: {values: [1]}}]\n")
	_, err = svc.RunAll(context.Background(), []string{bad})
	assert.ErrorIs(t, err, model.ErrProfileLength)
}

func TestRunScenarioCanceled(t *testing.T) {
	svc, sink, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RunScenario(ctx, &scenario.Scenario{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.calcs)
}

func newReserve(t *testing.T, key string, volume float64, rule reserve.DecayRule) scenario.NamedReserve {
	t.Helper()
	r, err := reserve.New(volume, rule, 3)
	require.NoError(t, err)
	return scenario.NamedReserve{Key: key, Reserve: r}
}

func surplusOrder(t *testing.T) *dispatch.Order {
	t.Helper()
	o, err := dispatch.NewOrder(3)
	require.NoError(t, err)
	o.AddConsumer(model.NewConsumer("town", []float64{1, 1, 1}, 10))
	o.AddAlwaysOn(model.NewAlwaysOn("solar", []float64{1, 0, 0.5}, 30))
	return o
}

func TestAbsorbSurplus(t *testing.T) {
	reps := absorbSurplus(surplusOrder(t), []scenario.NamedReserve{
		newReserve(t, "a", 15, nil),
		newReserve(t, "b", 100, reserve.ProportionalDecay(0.5)),
	})
	require.Len(t, reps, 2)

	assert.Equal(t, 15.0, reps[0].Absorbed)
	assert.Equal(t, 0.0, reps[0].Spilled)
	assert.Equal(t, 0.0, reps[0].Decayed)
	assert.Equal(t, 15.0, reps[0].Final)
	assert.Equal(t, 15.0, reps[0].Peak)

	assert.Equal(t, 10.0, reps[1].Absorbed)
	assert.Equal(t, 0.0, reps[1].Spilled)
	assert.InDelta(t, 3.75, reps[1].Decayed, 1e-9)
	assert.InDelta(t, 6.25, reps[1].Final, 1e-9)
	assert.InDelta(t, 6.25, reps[1].Peak, 1e-9)
}

func TestAbsorbSurplusSpills(t *testing.T) {
	reps := absorbSurplus(surplusOrder(t), []scenario.NamedReserve{newReserve(t, "a", 15, nil)})
	require.Len(t, reps, 1)
	assert.Equal(t, 15.0, reps[0].Absorbed)
	assert.Equal(t, 10.0, reps[0].Spilled)

	assert.Nil(t, absorbSurplus(surplusOrder(t), nil))
}
