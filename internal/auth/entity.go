// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session is one row of the remote user_sessions table: a (user, device)
// pairing holding the hash of the live refresh token. At most one session
// per user should have IsActive set; this is policy enforced by deactivating
// prior sessions before insert, not a transactional guarantee.
type Session struct {
	ID               string         `json:"id,omitempty"`
	UserID           string         `json:"user_id"`
	DeviceID         string         `json:"device_id"`
	DeviceInfo       map[string]any `json:"device_info,omitempty"`
	RefreshTokenHash string         `json:"refresh_token_hash"`
	IsActive         bool           `json:"is_active"`
	ExpiresAt        time.Time      `json:"expires_at"`
	LastActivity     *time.Time     `json:"last_activity,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
