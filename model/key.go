package model

import (
	"time"
)

// TrackerKey is a per user credential issued by the tracker. It is embedded in the
// personal announce url of the user.
type TrackerKey struct {
	Key string `db:"tracker_key" json:"key"`
	// ValidUntil is a unix timestamp (seconds)
	ValidUntil int64 `db:"valid_until" json:"valid_until"`
}

// Expired returns true once the key can no longer be handed out to a user.
func (k TrackerKey) Expired(now time.Time) bool {
	return now.Unix() >= k.ValidUntil
}

// ExpiresIn returns the time remaining before expiry, clamped at 0
func (k TrackerKey) ExpiresIn(now time.Time) time.Duration {
	d := time.Unix(k.ValidUntil, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
