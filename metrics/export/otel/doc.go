// Package otel bridges engine metrics into an OpenTelemetry meter via a
// pull callback: every collection reads one snapshot and observes all
// counters and cumulative histogram buckets from it.
package otel
