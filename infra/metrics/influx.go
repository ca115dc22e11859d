package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/infra/logger"
)

// InfluxSink writes calculation results to an InfluxDB instance using the
// official client. Every frame becomes one point, timestamped from the
// report start.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 30 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCalculation writes one merit_frame point per frame and one
// merit_dispatchable point per dispatchable.
func (s *InfluxSink) RecordCalculation(rep coremetrics.CalculationReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(rep.Frames)+len(rep.Summary.Dispatchables))
	for _, f := range rep.Frames {
		p := write.NewPointWithMeasurement("merit_frame").
			AddTag("scenario", rep.Scenario).
			AddTag("run_id", rep.RunID)
		if f.PriceSetter != "" {
			p = p.AddTag("price_setter", f.PriceSetter)
		}
		p = p.AddField("demand", round3(f.Demand)).
			AddField("always_on", round3(f.AlwaysOn)).
			AddField("residual", round3(f.Residual)).
			AddField("shortage", f.PriceSetter == "")
		for i, load := range f.Loads {
			if i < len(rep.Keys) {
				p = p.AddField("load_"+rep.Keys[i], round3(load))
			}
		}
		points = append(points, p.SetTime(rep.FrameTime(f.Frame)))
	}
	for _, d := range rep.Summary.Dispatchables {
		p := write.NewPointWithMeasurement("merit_dispatchable").
			AddTag("scenario", rep.Scenario).
			AddTag("run_id", rep.RunID).
			AddTag("dispatchable", d.Key).
			AddField("energy", round3(d.Energy)).
			AddField("capacity_factor", round3(d.CapacityFactor)).
			AddField("price_setting_frames", d.PriceSettingFrames).
			SetTime(rep.Start)
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordReserve writes a reserve summary point.
func (s *InfluxSink) RecordReserve(rep coremetrics.ReserveReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("merit_reserve").
		AddTag("scenario", rep.Scenario).
		AddTag("run_id", rep.RunID).
		AddTag("reserve", rep.Key).
		AddField("volume", round3(rep.Volume)).
		AddField("absorbed", round3(rep.Absorbed)).
		AddField("spilled", round3(rep.Spilled)).
		AddField("decayed", round3(rep.Decayed)).
		AddField("final", round3(rep.Final)).
		AddField("peak", round3(rep.Peak)).
		SetTime(rep.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
