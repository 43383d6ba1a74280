// Package recipeAuth is the authentication and authorization engine of the
// recipe platform. It verifies credentials with an account lockout policy,
// issues and refreshes stateless HS256 token pairs, resolves static role
// permissions and runs the one-time password reset and email verification
// flows.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// recipeAuth is the public surface. It exposes [Engine], [Builder], [Config]
// and the value types callers exchange with it ([User], [AuthResult],
// [MetricsSnapshot]). Persistence is reached only through [UserStore]; mail
// delivery only through [Notifier]. Redis-backed helpers (challenges, token
// deny-list, login throttle) live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Leak why a login failed. The reason is logged and audited; the caller
//     only sees the error class.
//   - Expose Redis clients, internal stores or encoding details in its API.
//   - Import a sub-package that re-imports recipeAuth.
package recipeAuth
