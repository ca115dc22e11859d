// Package factory provides a generic registry used to build pluggable
// modules, such as metrics sinks, from configuration entries.
package factory
