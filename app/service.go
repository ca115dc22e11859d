package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/meritorder/config"
	"github.com/kilianp07/meritorder/core/dispatch"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/core/results"
	_ "github.com/kilianp07/meritorder/infra/kpi"
	"github.com/kilianp07/meritorder/infra/logger"
	"github.com/kilianp07/meritorder/infra/metrics"
	_ "github.com/kilianp07/meritorder/infra/mqtt"
	"github.com/kilianp07/meritorder/internal/eventbus"
	"github.com/kilianp07/meritorder/scenario"
)

// RunStatus tells whether a scenario run succeeded.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunEvent is published on the service bus after every scenario.
type RunEvent struct {
	RunID    string
	Scenario string
	Status   RunStatus
	Err      error
	Summary  dispatch.Summary
	Duration time.Duration
}

// Outcome is the result of one scenario run.
type Outcome struct {
	RunID    string
	Scenario string
	Order    *dispatch.Order
	Summary  dispatch.Summary
	Reserves []coremetrics.ReserveReport
}

// Service runs scenarios through the dispatch engine and records the results.
type Service struct {
	cfg    *config.Config
	engine *dispatch.Engine
	sink   coremetrics.MetricsSink
	store  results.Store
	bus    *eventbus.Bus[RunEvent]
	log    logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the sinks built from metrics.sinks.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the store built from the results section.
func WithStore(s results.Store) Option { return func(svc *Service) { svc.store = s } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// WithClock sets the time source used for run timestamps.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:   cfg,
		bus:   eventbus.New[RunEvent](),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.NewWithOptions("service", cfg.Logging.Level, cfg.Logging.Format)
	}
	svc.engine = dispatch.NewEngine(cfg.Dispatch,
		logger.NewWithOptions("engine", cfg.Logging.Level, cfg.Logging.Format))

	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := results.Open(cfg.Results)
		if err != nil {
			_ = coremetrics.Close(svc.sink)
			return nil, fmt.Errorf("results store: %w", err)
		}
		svc.store = store
	}
	return svc, nil
}

// Events subscribes to run events. Delivery is non-blocking; slow readers miss events.
func (s *Service) Events() <-chan RunEvent { return s.bus.Subscribe() }

// StartMetrics serves Prometheus metrics until ctx is done when
// metrics.prometheus_addr is set.
func (s *Service) StartMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// RunAll loads and runs the scenario files concurrently. Outcomes keep the
// order of paths. The first failure cancels the remaining runs.
func (s *Service) RunAll(ctx context.Context, paths []string) ([]*Outcome, error) {
	if len(paths) == 0 {
		return nil, errors.New("no scenario to run")
	}
	outcomes := make([]*Outcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sc, err := scenario.Load(path)
			if err != nil {
				s.bus.Publish(RunEvent{Scenario: path, Status: StatusFailed, Err: err})
				return err
			}
			out, err := s.RunScenario(ctx, sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	return outcomes, g.Wait()
}

// RunScenario builds, calculates and records a single scenario.
func (s *Service) RunScenario(ctx context.Context, sc *scenario.Scenario) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runID := s.newID()
	start := s.now()
	out, err := s.run(ctx, runID, start, sc)
	ev := RunEvent{RunID: runID, Scenario: sc.Name, Status: StatusCompleted, Duration: s.now().Sub(start)}
	if err != nil {
		ev.Status, ev.Err = StatusFailed, err
		s.log.Errorf("scenario %s failed: %v", sc.Name, err)
	} else {
		ev.Summary = out.Summary
	}
	s.bus.Publish(ev)
	return out, err
}

func (s *Service) run(ctx context.Context, runID string, start time.Time, sc *scenario.Scenario) (*Outcome, error) {
	built, err := sc.Build(s.cfg.Horizon)
	if err != nil {
		return nil, err
	}
	order := built.Order
	summary, err := s.engine.Run(order)
	if err != nil {
		return nil, err
	}
	elapsed := s.now().Sub(start)
	if summary.Shortage() {
		s.log.Warnf("scenario %s: demand unmet in %d of %d frames (first %d)",
			sc.Name, len(summary.ShortageFrames), summary.Horizon, summary.ShortageFrames[0])
	}

	reserves := absorbSurplus(order, built.Reserves)
	for i := range reserves {
		reserves[i].RunID = runID
		reserves[i].Scenario = sc.Name
		reserves[i].Time = start
	}

	keys := dispatch.DispatchableKeys(order)
	frames := dispatch.Frames(order)
	report := coremetrics.CalculationReport{
		RunID:    runID,
		Scenario: sc.Name,
		Start:    start,
		Duration: elapsed,
		Keys:     keys,
		Summary:  summary,
		Frames:   frames,
	}
	if err := s.sink.RecordCalculation(report); err != nil {
		s.log.Errorf("record calculation %s: %v", sc.Name, err)
	}
	if rr, ok := s.sink.(coremetrics.ReserveRecorder); ok {
		for _, rep := range reserves {
			if err := rr.RecordReserve(rep); err != nil {
				s.log.Errorf("record reserve %s/%s: %v", sc.Name, rep.Key, err)
			}
		}
	}

	rec := results.Record{
		ID:           runID,
		Timestamp:    start,
		Scenario:     sc.Name,
		SortByCost:   s.cfg.Dispatch.SortByCost,
		Keys:         keys,
		Summary:      summary,
		PriceSetters: make([]string, len(frames)),
	}
	for i, f := range frames {
		rec.PriceSetters[i] = f.PriceSetter
	}
	for _, r := range reserves {
		rec.Reserves = append(rec.Reserves, results.ReserveRecord{
			Key: r.Key, Volume: r.Volume, Absorbed: r.Absorbed,
			Spilled: r.Spilled, Decayed: r.Decayed, Final: r.Final,
		})
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append result: %w", err)
	}
	s.log.Infof("scenario %s calculated in %s (run %s)", sc.Name, elapsed, runID)

	return &Outcome{
		RunID:    runID,
		Scenario: sc.Name,
		Order:    order,
		Summary:  summary,
		Reserves: reserves,
	}, nil
}

// History queries previously recorded runs.
func (s *Service) History(ctx context.Context, q results.Query) ([]results.Record, error) {
	return s.store.Query(ctx, q)
}

// Close releases the sinks, the store and the event bus.
func (s *Service) Close() error {
	s.bus.Close()
	return errors.Join(coremetrics.Close(s.sink), s.store.Close())
}
