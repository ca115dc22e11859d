// Package mqtt publishes calculation results to an MQTT broker using Eclipse
// Paho. Importing it registers the "mqtt" metrics sink type.
package mqtt
