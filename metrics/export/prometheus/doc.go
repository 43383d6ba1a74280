// Package prometheus exposes recipeAuth engine metrics as a
// client_golang Collector.
//
// Counter names are prefixed recipeauth_ and end in _total; the latency
// histograms are recipeauth_login_latency_seconds and
// recipeauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     Collector or mount [Handler].
//   - Mutate engine state.
package prometheus
