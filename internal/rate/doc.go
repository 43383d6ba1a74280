// Package rate provides a Redis-backed fixed-window throttle for failed
// logins, keyed per email and optionally per client IP.
//
// # Window semantics
//
// A Lua script increments the counter and sets its expiry on the first hit,
// so later failures never extend the window. Key prefixes:
//   - ral:  login per email
//   - rali: login per IP
//
// This throttle sits in front of the account lockout counter and never
// replaces it.
package rate
