// Package scenario reads merit order scenarios from YAML or JSON files and
// builds the participants they describe.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProfileDef describes a per-frame profile. Exactly one source must be set.
type ProfileDef struct {
	Constant *float64 `yaml:"constant,omitempty" json:"constant,omitempty"`
	Values   []float64 `yaml:"values,omitempty" json:"values,omitempty"`
	// CSV is a single column file, relative paths resolve against the scenario file.
	CSV string `yaml:"csv,omitempty" json:"csv,omitempty"`
}

// ParticipantDef describes an always-on producer or a consumer.
type ParticipantDef struct {
	Key       string     `yaml:"key" json:"key"`
	Magnitude float64    `yaml:"magnitude" json:"magnitude"`
	Profile   ProfileDef `yaml:"profile" json:"profile"`
}

// DispatchableDef describes a dispatchable producer. Units defaults to 1.
type DispatchableDef struct {
	Key      string   `yaml:"key" json:"key"`
	Cost     float64  `yaml:"cost" json:"cost"`
	Capacity float64  `yaml:"capacity" json:"capacity"`
	Units    *float64 `yaml:"units,omitempty" json:"units,omitempty"`
}

// DecayDef selects a decay rule: none, constant (Amount) or proportional (Rate).
type DecayDef struct {
	Type   string  `yaml:"type" json:"type"`
	Rate   float64 `yaml:"rate,omitempty" json:"rate,omitempty"`
	Amount float64 `yaml:"amount,omitempty" json:"amount,omitempty"`
}

// ReserveDef describes a storage reserve fed by surplus must-run production.
type ReserveDef struct {
	Key    string   `yaml:"key" json:"key"`
	Volume float64  `yaml:"volume" json:"volume"`
	Decay  DecayDef `yaml:"decay,omitempty" json:"decay,omitempty"`
}

// Scenario is the file representation of a merit order.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Horizon overrides the configured horizon when positive.
	Horizon       int               `yaml:"horizon,omitempty" json:"horizon,omitempty"`
	AlwaysOn      []ParticipantDef  `yaml:"always_on" json:"always_on"`
	Consumers     []ParticipantDef  `yaml:"consumers" json:"consumers"`
	Dispatchables []DispatchableDef `yaml:"dispatchables" json:"dispatchables"`
	Reserves      []ReserveDef      `yaml:"reserves,omitempty" json:"reserves,omitempty"`

	dir string
}

// Load reads a scenario from a .yaml, .yml or .json file. A scenario without
// a name is named after its file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.ToLower(filepath.Ext(path))
	sc, err := Decode(f, strings.TrimPrefix(ext, "."))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Decode reads a scenario from r. CSV profile paths are resolved against the
// working directory.
func Decode(r io.Reader, format string) (*Scenario, error) {
	var sc Scenario
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&sc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", format)
	}
	return &sc, nil
}
