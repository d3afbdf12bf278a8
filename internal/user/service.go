// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelamos/chefbot-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(email))
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a new free-plan user. Email uniqueness is a
// check-then-act against the remote table; two concurrent signups with the
// same address can both pass the check.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash string,
) (*User, error) {
	email = strings.ToLower(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Plan:         PlanFree,
		MonthlyUsage: 0,
		UsageMonth:   CurrentMonth(time.Now()),
		CreatedAt:    time.Now().UTC(),
	}

	return s.repo.Create(ctx, u)
}

// UpdatePassword upgrades a stored legacy hash after a successful login.
func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.Update(ctx, id, map[string]any{
		"password_hash": passwordHash,
	})
}

// RollUsageMonth resets the counter and marker together when the stored
// month no longer matches the current one. The local copy is updated even
// when the remote write fails so callers see consistent state.
func (s *Service) RollUsageMonth(ctx context.Context, u *User) {
	current := CurrentMonth(time.Now())
	if u.UsageMonth == current {
		return
	}

	err := s.repo.Update(ctx, u.ID, map[string]any{
		"monthly_usage": 0,
		"usage_month":   current,
	})
	if err != nil {
		slog.Warn("usage month rollover not persisted",
			"user_id", u.ID,
			"error", err,
		)
	}

	u.MonthlyUsage = 0
	u.UsageMonth = current
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
