// Package observability provides process-level logging setup, OpenTelemetry
// tracing initialization, and the health endpoints served on the dedicated
// health port.
package observability
