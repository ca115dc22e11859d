// Package kpi keeps daily energy totals per dispatchable in SQLite.
package kpi

import (
	"database/sql"
	"time"

	"github.com/kilianp07/meritorder/core/factory"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	_ "modernc.org/sqlite"
)

const upsert = `INSERT INTO dispatch_kpi (scenario, key, day, energy, price_setting)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(scenario, key, day) DO UPDATE SET
            energy = energy + excluded.energy,
            price_setting = price_setting + excluded.price_setting`

func init() {
	_ = coremetrics.RegisterMetricsSink("kpi", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "kpi.db"
		}
		return NewSQLiteStore(c.Path)
	})
}

// Record is the energy a dispatchable produced during one UTC day.
type Record struct {
	Scenario string
	Key      string
	Day      time.Time
	Energy   float64
	// PriceSetting counts the frames of the day the dispatchable set the price.
	PriceSetting int
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dispatch_kpi (
        scenario TEXT,
        key TEXT,
        day INTEGER,
        energy REAL,
        price_setting INTEGER,
        PRIMARY KEY(scenario, key, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// Add inserts or accumulates the KPI record.
func (s *SQLiteStore) Add(r Record) error {
	_, err := s.db.Exec(upsert, r.Scenario, r.Key, Day(r.Day).Unix(), r.Energy, r.PriceSetting)
	return err
}

// RecordCalculation folds the frames of the report into daily records.
// Frame times come from CalculationReport.FrameTime.
func (s *SQLiteStore) RecordCalculation(rep coremetrics.CalculationReport) error {
	type dayKey struct {
		key string
		day int64
	}
	agg := map[dayKey]*Record{}
	var order []dayKey
	for _, f := range rep.Frames {
		day := Day(rep.FrameTime(f.Frame))
		for i, load := range f.Loads {
			if i >= len(rep.Keys) {
				break
			}
			k := dayKey{rep.Keys[i], day.Unix()}
			r, ok := agg[k]
			if !ok {
				r = &Record{Scenario: rep.Scenario, Key: rep.Keys[i], Day: day}
				agg[k] = r
				order = append(order, k)
			}
			r.Energy += load
			if f.PriceSetter == rep.Keys[i] {
				r.PriceSetting++
			}
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, k := range order {
		r := agg[k]
		if _, err := tx.Exec(upsert, r.Scenario, r.Key, k.day, r.Energy, r.PriceSetting); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns the records of one dispatchable in the range [start,end].
func (s *SQLiteStore) Query(scenario, key string, start, end time.Time) ([]Record, error) {
	rows, err := s.db.Query(`SELECT scenario, key, day, energy, price_setting
        FROM dispatch_kpi WHERE scenario = ? AND key = ? AND day >= ? AND day <= ? ORDER BY day`,
		scenario, key, Day(start).Unix(), Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var r Record
		var ts int64
		if err := rows.Scan(&r.Scenario, &r.Key, &ts, &r.Energy, &r.PriceSetting); err != nil {
			return nil, err
		}
		r.Day = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
