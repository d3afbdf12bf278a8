// AngelaMos | 2026
// entity.go

package quota

import (
	"time"
)

// RateLimitRecord is one row of the remote rate_limits table, keyed by user
// and UTC calendar-hour bucket. Counts only ever grow; a new bucket starts
// implicitly at zero. Old rows are never deleted.
type RateLimitRecord struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
	Plan   string `json:"plan"`
}

// HourBucket formats the UTC calendar-hour key, e.g. 2026-09-01-14.
func HourBucket(now time.Time) string {
	return now.UTC().Format("2006-01-02-15")
}
