// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type SignupRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type SecureLoginRequest struct {
	Email      string         `json:"email"       validate:"required,email,max=255"`
	Password   string         `json:"password"    validate:"required,max=128"`
	DeviceID   string         `json:"device_id"   validate:"required,max=128"`
	DeviceInfo map[string]any `json:"device_info"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

type AuthResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserPayload `json:"user"`
}

type MeResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Plan         string    `json:"plan"`
	MonthlyUsage int       `json:"monthly_usage"`
	UsageMonth   string    `json:"usage_month"`
	CreatedAt    time.Time `json:"created_at"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}
