// Package metrics defines interfaces for recording calculation results.
// Sinks like PromSink and InfluxSink live in infra/metrics and register
// themselves by type name; NewMetricsSink returns a MultiSink automatically
// when multiple sinks are configured.
package metrics
