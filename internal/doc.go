// Package internal holds helpers private to recipeAuth, chiefly one-time
// challenge token generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - httpapi: chi router exposing the engine over JSON/HTTP
//   - ids: ULID generation
//   - rate: Redis fixed-window login throttle
//   - security: startup security posture report
//   - serverconfig: YAML + environment configuration for the server binary
//   - stores: Redis challenge store and token deny-list
package internal
