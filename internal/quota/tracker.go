// AngelaMos | 2026
// tracker.go

package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/user"
)

// UserUpdater is the slice of the user repository the tracker writes
// counters through.
type UserUpdater interface {
	Update(ctx context.Context, id string, fields map[string]any) error
}

// Tracker gates analysis requests on two independent counters, both
// re-derived from the remote store on every request. Storage failures on
// either counter allow the request through: availability is deliberately
// preferred over strict enforcement here.
type Tracker struct {
	users  UserUpdater
	limits RateLimitStore
	cfg    config.LimitsConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewTracker(
	users UserUpdater,
	limits RateLimitStore,
	cfg config.LimitsConfig,
) *Tracker {
	return &Tracker{
		users:  users,
		limits: limits,
		cfg:    cfg,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// CheckMonthly applies the free-plan monthly quota. The month marker and
// counter roll over together before the limit is evaluated; pro users pass
// unconditionally but still have their counter maintained.
func (t *Tracker) CheckMonthly(ctx context.Context, u *user.User) error {
	now := t.now()
	current := user.CurrentMonth(now)

	if u.UsageMonth != current {
		err := t.users.Update(ctx, u.ID, map[string]any{
			"monthly_usage": 0,
			"usage_month":   current,
		})
		if err != nil {
			slog.Warn("monthly usage rollover not persisted, allowing",
				"user_id", u.ID,
				"error", err,
			)
		}
		u.MonthlyUsage = 0
		u.UsageMonth = current
	}

	if u.IsFree() && u.MonthlyUsage >= t.cfg.FreeMaxMonthly {
		return &LimitError{
			Kind:    "monthly",
			Limit:   t.cfg.FreeMaxMonthly,
			ResetAt: NextMonthStart(now),
		}
	}

	newUsage := u.MonthlyUsage + 1
	err := t.users.Update(ctx, u.ID, map[string]any{
		"monthly_usage": newUsage,
	})
	if err != nil {
		slog.Warn("monthly usage increment not persisted, allowing",
			"user_id", u.ID,
			"error", err,
		)
	}
	u.MonthlyUsage = newUsage

	return nil
}

// CheckHourly applies the per-plan hourly cap using a lazily created row per
// (user, hour bucket).
func (t *Tracker) CheckHourly(ctx context.Context, u *user.User) error {
	bucket := HourBucket(t.now())
	limit := t.HourlyLimit(u.Plan)

	record, err := t.limits.Get(ctx, u.ID, bucket)
	if err != nil {
		slog.Warn("rate limit lookup failed, allowing",
			"user_id", u.ID,
			"bucket", bucket,
			"error", err,
		)
		return nil
	}

	if record == nil {
		err := t.limits.Create(ctx, &RateLimitRecord{
			UserID: u.ID,
			Bucket: bucket,
			Count:  1,
			Plan:   u.Plan,
		})
		if err != nil {
			slog.Warn("rate limit record creation failed, allowing",
				"user_id", u.ID,
				"bucket", bucket,
				"error", err,
			)
		}
		return nil
	}

	if record.Count >= limit {
		return &LimitError{
			Kind:  "hourly",
			Limit: limit,
		}
	}

	err = t.limits.SetCount(ctx, u.ID, bucket, record.Count+1)
	if err != nil {
		slog.Warn("rate limit increment failed, allowing",
			"user_id", u.ID,
			"bucket", bucket,
			"error", err,
		)
	}

	return nil
}

// Delay pauses free-plan requests for the configured interval. The pause is
// per-request; concurrent requests each wait independently.
func (t *Tracker) Delay(ctx context.Context, u *user.User) {
	if !u.IsFree() || t.cfg.FreeDelay <= 0 {
		return
	}
	t.sleep(ctx, t.cfg.FreeDelay)
}

func (t *Tracker) HourlyLimit(plan string) int {
	if plan == user.PlanPro {
		return t.cfg.ProPerHour
	}
	return t.cfg.FreePerHour
}

func (t *Tracker) MonthlyLimit() int {
	return t.cfg.FreeMaxMonthly
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Describe summarizes the configured limits for diagnostics.
func (t *Tracker) Describe() string {
	return fmt.Sprintf(
		"monthly(free)=%d hourly(free)=%d hourly(pro)=%d delay=%s",
		t.cfg.FreeMaxMonthly,
		t.cfg.FreePerHour,
		t.cfg.ProPerHour,
		t.cfg.FreeDelay,
	)
}
