// Package otel exposes check-in engine counters as OpenTelemetry observable
// instruments. The caller owns the MeterProvider and passes in a Meter.
package otel
