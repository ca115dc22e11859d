// Package results persists calculation runs so they can be listed and
// compared later.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/meritorder/core/dispatch"
)

// ReserveRecord summarises one reserve of a run.
type ReserveRecord struct {
	Key      string  `json:"key"`
	Volume   float64 `json:"volume"`
	Absorbed float64 `json:"absorbed"`
	Spilled  float64 `json:"spilled"`
	Decayed  float64 `json:"decayed"`
	Final    float64 `json:"final"`
}

// Record captures one calculation run.
type Record struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Scenario   string           `json:"scenario"`
	SortByCost bool             `json:"sort_by_cost"`
	Keys       []string         `json:"keys"`
	Summary    dispatch.Summary `json:"summary"`
	// PriceSetters holds the price setter key of every frame, empty on shortage.
	PriceSetters []string        `json:"price_setters"`
	Reserves     []ReserveRecord `json:"reserves,omitempty"`
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Start        time.Time
	End          time.Time
	Scenario     string
	ShortageOnly bool
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Scenario != "" && r.Scenario != q.Scenario {
		return false
	}
	if q.ShortageOnly && !r.Summary.Shortage() {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config defines settings for run storage.
type Config struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// Compress writes zstd-compressed JSONL.
	Compress bool `json:"compress"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch {
		case c.Backend == "sqlite":
			c.Path = "results.db"
		case c.Compress:
			c.Path = "results.jsonl.zst"
		default:
			c.Path = "results.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown results backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("results path is required")
	}
	if c.Compress && c.Backend != "jsonl" {
		return fmt.Errorf("compression is only supported by the jsonl backend")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == "sqlite" {
		return NewSQLiteStore(cfg.Path)
	}
	return NewJSONLStore(cfg.Path, cfg.Compress)
}
