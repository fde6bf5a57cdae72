// Package otel exports menugate gateway counters as OpenTelemetry
// asynchronous instruments observed from [menugate.Gateway.MetricsSnapshot].
package otel
