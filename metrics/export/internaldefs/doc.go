// Package internaldefs holds the shared metric name/help definitions and
// bucket math used by the otel and prometheus exporters. It is not part of
// the public API surface.
package internaldefs
