package scenario

import (
	"errors"
	"fmt"

	"github.com/kilianp07/meritorder/core/dispatch"
	"github.com/kilianp07/meritorder/core/model"
	"github.com/kilianp07/meritorder/core/reserve"
)

var errDuplicateKey = errors.New("duplicate key")

// NamedReserve pairs a reserve with its scenario key.
type NamedReserve struct {
	Key     string
	Reserve *reserve.Reserve
}

// Built holds the runtime objects of a scenario.
type Built struct {
	Name     string
	Order    *dispatch.Order
	Reserves []NamedReserve
}

// Build creates the order and reserves of the scenario. defaultHorizon is used
// unless the scenario sets its own.
func (sc *Scenario) Build(defaultHorizon int) (*Built, error) {
	horizon := defaultHorizon
	if sc.Horizon > 0 {
		horizon = sc.Horizon
	}
	order, err := dispatch.NewOrder(horizon)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	claim := func(kind, key string) error {
		if key == "" {
			return fmt.Errorf("%s without key", kind)
		}
		id := kind + "/" + key
		if seen[id] {
			return fmt.Errorf("%s %s: %w", kind, key, errDuplicateKey)
		}
		seen[id] = true
		return nil
	}

	for _, def := range sc.AlwaysOn {
		if err := claim("always_on", def.Key); err != nil {
			return nil, err
		}
		p, err := def.Profile.resolve(horizon, sc.dir)
		if err != nil {
			return nil, fmt.Errorf("always_on %s: %w", def.Key, err)
		}
		order.AddAlwaysOn(model.NewAlwaysOn(def.Key, p, def.Magnitude))
	}
	for _, def := range sc.Consumers {
		if err := claim("consumer", def.Key); err != nil {
			return nil, err
		}
		p, err := def.Profile.resolve(horizon, sc.dir)
		if err != nil {
			return nil, fmt.Errorf("consumer %s: %w", def.Key, err)
		}
		order.AddConsumer(model.NewConsumer(def.Key, p, def.Magnitude))
	}
	for _, def := range sc.Dispatchables {
		if err := claim("dispatchable", def.Key); err != nil {
			return nil, err
		}
		units := 1.0
		if def.Units != nil {
			units = *def.Units
		}
		if def.Capacity < 0 || units < 0 {
			return nil, fmt.Errorf("dispatchable %s: negative capacity", def.Key)
		}
		order.AddDispatchable(model.NewDispatchable(def.Key, def.Cost, def.Capacity, units, horizon))
	}

	b := &Built{Name: sc.Name, Order: order}
	for _, def := range sc.Reserves {
		if err := claim("reserve", def.Key); err != nil {
			return nil, err
		}
		rule, err := def.Decay.rule()
		if err != nil {
			return nil, fmt.Errorf("reserve %s: %w", def.Key, err)
		}
		r, err := reserve.New(def.Volume, rule, horizon)
		if err != nil {
			return nil, fmt.Errorf("reserve %s: %w", def.Key, err)
		}
		b.Reserves = append(b.Reserves, NamedReserve{Key: def.Key, Reserve: r})
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (d DecayDef) rule() (reserve.DecayRule, error) {
	switch d.Type {
	case "", "none":
		return reserve.NoDecay{}, nil
	case "constant":
		if d.Amount < 0 {
			return nil, fmt.Errorf("negative decay amount %v", d.Amount)
		}
		return reserve.ConstantDecay(d.Amount), nil
	case "proportional":
		if d.Rate < 0 || d.Rate > 1 {
			return nil, fmt.Errorf("decay rate %v outside [0,1]", d.Rate)
		}
		return reserve.ProportionalDecay(d.Rate), nil
	default:
		return nil, fmt.Errorf("unknown decay type %s", d.Type)
	}
}
