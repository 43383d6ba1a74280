// Package otel binds recipeAuth engine metrics to OpenTelemetry observable
// instruments: one Int64ObservableCounter per counter and, per latency
// histogram, one Int64ObservableGauge per cumulative bucket plus a count.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
