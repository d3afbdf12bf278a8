// AngelaMos | 2026
// errors.go

package quota

import (
	"fmt"
	"time"

	"github.com/angelamos/chefbot-api/internal/core"
)

// LimitError is returned on a denied request. It carries the limit that was
// hit and, for the monthly quota, when the counter resets.
type LimitError struct {
	Kind    string // "monthly" or "hourly"
	Limit   int
	ResetAt time.Time
}

func (e *LimitError) Error() string {
	if e.Kind == "monthly" {
		return fmt.Sprintf(
			"free plan limit reached: %d analyses this month",
			e.Limit,
		)
	}
	return fmt.Sprintf("rate limit exceeded: %d requests per hour", e.Limit)
}

func (e *LimitError) Unwrap() error {
	if e.Kind == "monthly" {
		return core.ErrQuotaExceeded
	}
	return core.ErrRateLimited
}

// NextMonthStart returns the UTC instant the monthly quota resets.
func NextMonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
}
