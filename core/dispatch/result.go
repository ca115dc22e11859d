package dispatch

// FrameResult is the outcome of one calculated frame.
type FrameResult struct {
	Frame    int     `json:"frame"`
	Demand   float64 `json:"demand"`
	AlwaysOn float64 `json:"always_on"`
	Residual float64 `json:"residual"`
	// PriceSetter is the key of the marginal dispatchable, empty on shortage.
	PriceSetter string `json:"price_setter,omitempty"`
	// Loads holds one entry per dispatchable, in stored order.
	Loads []float64 `json:"loads"`
}

// Frames lists the result of every frame of a calculated order.
func Frames(o *Order) []FrameResult {
	out := make([]FrameResult, o.horizon)
	for f := range out {
		demand, always := o.DemandAt(f), o.AlwaysOnAt(f)
		r := FrameResult{
			Frame:    f,
			Demand:   demand,
			AlwaysOn: always,
			Residual: demand - always,
			Loads:    make([]float64, len(o.Dispatchables)),
		}
		r.PriceSetter, _ = o.PriceSetterKey(f)
		for i, d := range o.Dispatchables {
			r.Loads[i] = d.LoadAt(f)
		}
		out[f] = r
	}
	return out
}

// DispatchableKeys returns the keys of the dispatchables in stored order.
func DispatchableKeys(o *Order) []string {
	keys := make([]string, len(o.Dispatchables))
	for i, d := range o.Dispatchables {
		keys[i] = d.Key
	}
	return keys
}
