package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/meritorder/core/factory"
	coremetrics "github.com/kilianp07/meritorder/core/metrics"
	"github.com/kilianp07/meritorder/infra/logger"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewResultPublisher(c)
	})
}

// ResultPublisher publishes calculation summaries to an MQTT broker. It
// implements metrics.MetricsSink and metrics.ReserveRecorder.
//
// Topics:
//
//	<prefix>/<scenario>/summary
//	<prefix>/<scenario>/reserve/<key>
type ResultPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// SummaryMessage is the payload published after each calculation.
type SummaryMessage struct {
	RunID          string             `json:"run_id"`
	Scenario       string             `json:"scenario"`
	Horizon        int                `json:"horizon"`
	ShortageFrames int                `json:"shortage_frames"`
	MeanResidual   float64            `json:"mean_residual"`
	PeakResidual   float64            `json:"peak_residual"`
	Energy         map[string]float64 `json:"energy"`
	PriceSetting   map[string]int     `json:"price_setting_frames"`
	DurationMS     int64              `json:"duration_ms"`
	Timestamp      int64              `json:"timestamp"`
}

// NewResultPublisher connects to the broker described by cfg.
func NewResultPublisher(cfg Config) (*ResultPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	cli, err := connect(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &ResultPublisher{
		cli:        cli,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// RecordCalculation publishes a SummaryMessage for the report.
func (p *ResultPublisher) RecordCalculation(rep coremetrics.CalculationReport) error {
	msg := SummaryMessage{
		RunID:          rep.RunID,
		Scenario:       rep.Scenario,
		Horizon:        rep.Summary.Horizon,
		ShortageFrames: len(rep.Summary.ShortageFrames),
		MeanResidual:   rep.Summary.MeanResidual,
		PeakResidual:   rep.Summary.PeakResidual,
		Energy:         make(map[string]float64, len(rep.Summary.Dispatchables)),
		PriceSetting:   make(map[string]int, len(rep.Summary.Dispatchables)),
		DurationMS:     rep.Duration.Milliseconds(),
		Timestamp:      time.Now().UnixMilli(),
	}
	for _, d := range rep.Summary.Dispatchables {
		msg.Energy[d.Key] += d.Energy
		msg.PriceSetting[d.Key] += d.PriceSettingFrames
	}
	return p.publish(fmt.Sprintf("%s/%s/summary", p.prefix, rep.Scenario), msg)
}

// RecordReserve publishes the reserve report as JSON.
func (p *ResultPublisher) RecordReserve(rep coremetrics.ReserveReport) error {
	msg := struct {
		RunID    string  `json:"run_id"`
		Volume   float64 `json:"volume"`
		Absorbed float64 `json:"absorbed"`
		Spilled  float64 `json:"spilled"`
		Decayed  float64 `json:"decayed"`
		Final    float64 `json:"final"`
		Peak     float64 `json:"peak"`
	}{rep.RunID, rep.Volume, rep.Absorbed, rep.Spilled, rep.Decayed, rep.Final, rep.Peak}
	return p.publish(fmt.Sprintf("%s/%s/reserve/%s", p.prefix, rep.Scenario, rep.Key), msg)
}

func (p *ResultPublisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published %s", topic)
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// Close disconnects from the broker.
func (p *ResultPublisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
