// Package internaldefs holds the metric names shared by the exporters so
// Prometheus and OpenTelemetry publish identical series.
package internaldefs
