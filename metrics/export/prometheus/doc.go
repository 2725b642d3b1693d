// Package prometheus serves check-in engine counters in the Prometheus text
// exposition format. Mount [Exporter.Handler] on the metrics listener; no
// global registry is involved.
package prometheus
