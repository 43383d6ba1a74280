// Package security derives a configuration posture report for the engine:
// which protections are active and which settings fall below recommended
// values. The report never carries secret material.
package security
