// Package metrics exposes Prometheus counters and histograms for job ticks
// and notification deliveries.
package metrics
