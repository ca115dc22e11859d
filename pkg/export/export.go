package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/meritorder/core/dispatch"
)

// WriteJSON writes the run summary to w in indented JSON format.
func WriteJSON(w io.Writer, summary dispatch.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// WriteCSV writes one row per frame to w. keys name the dispatchable load
// columns in stored order. Shortage frames have an empty price_setter.
func WriteCSV(w io.Writer, keys []string, frames []dispatch.FrameResult) error {
	cw := csv.NewWriter(w)
	header := append([]string{"frame", "demand", "always_on", "residual", "price_setter"}, keys...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for _, f := range frames {
		rec = rec[:5]
		rec[0] = strconv.Itoa(f.Frame)
		rec[1] = formatFloat(f.Demand)
		rec[2] = formatFloat(f.AlwaysOn)
		rec[3] = formatFloat(f.Residual)
		rec[4] = f.PriceSetter
		for _, l := range f.Loads {
			rec = append(rec, formatFloat(l))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOrderCSV exports every frame of a calculated order.
func WriteOrderCSV(w io.Writer, o *dispatch.Order) error {
	return WriteCSV(w, dispatch.DispatchableKeys(o), dispatch.Frames(o))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
