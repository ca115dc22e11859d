package dispatch

import (
	"fmt"

	"github.com/kilianp07/meritorder/core/logger"
	"github.com/kilianp07/meritorder/core/model"
)

// Engine drains the dispatchable stack of an Order against residual demand,
// frame by frame.
type Engine struct {
	sortByCost bool
	log        logger.Logger
}

// NewEngine returns an engine. A nil logger disables logging.
func NewEngine(cfg Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{sortByCost: cfg.SortByCost, log: log}
}

// allocation buffers the decisions for one frame before they are written to
// the order. The first full dispatchables run at total capacity; marginal is
// the price setter, loaded with marginalLoad when loadMarginal is set.
type allocation struct {
	full         int
	marginal     int
	marginalLoad float64
	loadMarginal bool
}

// Calculate runs CalculateFrame for every frame in ascending order. It only
// fails for orders whose dispatchables do not cover the order's horizon.
func (e *Engine) Calculate(o *Order) error {
	for frame := 0; frame < o.horizon; frame++ {
		if err := e.CalculateFrame(frame, o); err != nil {
			return err
		}
	}
	return nil
}

// CalculateFrame assigns load to dispatchables for a single frame and records
// the price setter. Nothing is written when frame is out of range.
func (e *Engine) CalculateFrame(frame int, o *Order) error {
	if err := model.CheckFrame(frame, o.horizon); err != nil {
		return err
	}
	a := allocate(o.ResidualAt(frame), o.Dispatchables)
	return commit(frame, a, o)
}

func allocate(remaining float64, stack []*model.Dispatchable) allocation {
	a := allocation{marginal: NoPriceSetter}
	for i, d := range stack {
		maxLoad := d.TotalCapacity()
		if maxLoad < remaining {
			a.full++
			remaining -= maxLoad
			continue
		}
		// remaining is negative when always-on supply exceeds demand; the
		// first unit still sets the price, with no load.
		if remaining > 0 {
			a.marginalLoad = remaining
			a.loadMarginal = true
		}
		a.marginal = i
		break
	}
	return a
}

func commit(frame int, a allocation, o *Order) error {
	for i := 0; i < a.full; i++ {
		d := o.Dispatchables[i]
		if _, err := d.SetLoadAt(frame, d.TotalCapacity()); err != nil {
			return err
		}
	}
	if a.marginal == NoPriceSetter {
		return nil
	}
	if a.loadMarginal {
		if _, err := o.Dispatchables[a.marginal].SetLoadAt(frame, a.marginalLoad); err != nil {
			return err
		}
	}
	o.priceSetters[frame] = a.marginal
	return nil
}

// Run validates the order, sorts it when configured, calculates every frame
// and summarises the outcome.
func (e *Engine) Run(o *Order) (Summary, error) {
	if err := o.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid order: %w", err)
	}
	if e.sortByCost {
		o.SortDispatchables()
	}
	e.log.Debugw("calculation started", map[string]any{
		"horizon":       o.horizon,
		"always_ons":    len(o.AlwaysOns),
		"consumers":     len(o.Consumers),
		"dispatchables": len(o.Dispatchables),
		"sort_by_cost":  e.sortByCost,
	})
	if err := e.Calculate(o); err != nil {
		return Summary{}, err
	}
	s := Summarize(o)
	e.log.Debugw("calculation finished", map[string]any{
		"shortage_frames": len(s.ShortageFrames),
		"mean_residual":   s.MeanResidual,
	})
	return s, nil
}

// Calculate runs a calculation with the default engine, trusting the
// dispatchables to be stored in merit order.
func Calculate(o *Order) error {
	return NewEngine(Config{}, nil).Calculate(o)
}
