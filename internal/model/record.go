// Package model defines the core record type tracked across runs.
package model

import "time"

// Record is a metadata snapshot of one filesystem entity (file or
// directory) under the scanned root. A fresh Record is built from live
// stat data on every run with Importance 0, then enriched against the
// previous run's record for the same identity.
type Record struct {
	Identity       string    `json:"identity"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Importance     int       `json:"importance"`
}

// IsStale reports whether the entity has not been accessed within the
// retention window relative to now. Staleness is always evaluated
// against the caller's clock, never fixed at construction.
func (r Record) IsStale(now time.Time, window time.Duration) bool {
	return now.After(r.LastAccessedAt.Add(window))
}

// IsValuable reports whether the accrued importance meets the threshold.
func (r Record) IsValuable(threshold int) bool {
	return r.Importance >= threshold
}

// Accrue returns a copy of r with importance carried over from prev.
// Importance rises by exactly one when the entity has been accessed
// since the previous run (strictly newer LastAccessedAt); otherwise
// prev's importance is kept as-is, so a no-op re-scan or clock skew
// never inflates the score.
func (r Record) Accrue(prev Record) Record {
	if r.LastAccessedAt.After(prev.LastAccessedAt) {
		r.Importance = prev.Importance + 1
		return r
	}
	r.Importance = prev.Importance
	return r
}
