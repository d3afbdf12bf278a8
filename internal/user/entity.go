// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User mirrors a row of the remote users table. The usage-month marker and
// the monthly counter always move together: a month rollover resets both.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Plan         string    `json:"plan"`
	MonthlyUsage int       `json:"monthly_usage"`
	UsageMonth   string    `json:"usage_month"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

func (u *User) IsFree() bool {
	return u.Plan == PlanFree
}

// CurrentMonth returns the UTC calendar month marker in YYYY-MM form.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format("2006-01")
}
