package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/meritorder/core/model"
)

func (p ProfileDef) resolve(horizon int, dir string) ([]float64, error) {
	sources := 0
	if p.Constant != nil {
		sources++
	}
	if p.Values != nil {
		sources++
	}
	if p.CSV != "" {
		sources++
	}
	if sources != 1 {
		return nil, errors.New("profile needs exactly one of constant, values or csv")
	}

	var values []float64
	switch {
	case p.Constant != nil:
		values = make([]float64, horizon)
		for i := range values {
			values[i] = *p.Constant
		}
		return values, nil
	case p.Values != nil:
		values = p.Values
	default:
		path := p.CSV
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		v, err := ReadProfileCSV(path)
		if err != nil {
			return nil, err
		}
		values = v
	}
	if len(values) != horizon {
		return nil, fmt.Errorf("%w: got %d values, want %d", model.ErrProfileLength, len(values), horizon)
	}
	return values, nil
}

// ReadProfileCSV reads the first column of a CSV file. A non-numeric first row
// is treated as a header.
func ReadProfileCSV(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []float64
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if row == 0 {
				continue
			}
			return nil, fmt.Errorf("%s line %d: %w", path, row+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}
