// Package common provides shared utilities for finboard
package common

import "time"

// Default TTLs used when the config value is missing or unparseable
const (
	FreshnessPriceHistory = 1 * time.Hour
	FreshnessEarningsData = 24 * time.Hour // snapshots are rebuilt by the ETL at most daily
	FreshnessSession      = 12 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
