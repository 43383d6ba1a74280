// Package audit relays security-relevant events from the engine to a sink
// without blocking the request path.
//
// # Components
//
//   - [Sink]: event consumer (no-op, channel, JSON lines, zap logger), combined
//     with [MultiSink] or filtered with [FailuresOnly].
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full
//     semantics. A panicking sink is counted in [Stats] and does not stop it.
//   - [Event]: structured record with timestamp, type, user, tenant, actor, IP and metadata.
//
// This package does not decide which events to emit; the Engine does. It must
// not import recipeAuth or sibling internal packages.
package audit
