// Package stores provides Redis-backed, short-lived records for recipeAuth:
// one-time challenges (password reset, email verification) and the token
// deny-list used when revocation is enabled.
//
// # Design
//
// Each challenge is a Redis hash with a TTL. Consume uses a WATCH/MULTI
// optimistic transaction with retry on contention; a record is
// deleted on success, on expiry, and once its attempt budget is spent. Secret
// hashes are compared in constant time. Issuing a new challenge for a user
// replaces any outstanding one of the same purpose.
//
// This package does not generate secrets or make authentication decisions,
// must not import recipeAuth, and never sees plaintext secrets.
package stores
