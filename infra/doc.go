// Package infra groups the adapters behind the core interfaces: the zerolog
// logger, Prometheus and InfluxDB sinks, the MQTT result publisher and the
// SQLite KPI store. Core packages never import infra.
package infra
