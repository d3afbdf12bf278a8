// AngelaMos | 2026
// registry.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/store"
)

const sessionsTable = "user_sessions"

// Registry tracks device sessions in the remote store.
type Registry interface {
	Create(
		ctx context.Context,
		userID, deviceID string,
		deviceInfo map[string]any,
		refreshToken string,
	) error
	ActiveSessions(ctx context.Context, userID string) ([]Session, error)
	Validate(
		ctx context.Context,
		userID, refreshToken string,
	) (*Session, error)
	Invalidate(ctx context.Context, userID, refreshToken string)
	CleanupExpired(ctx context.Context) error
}

type registry struct {
	client     *store.Client
	refreshTTL time.Duration
	maxIdle    time.Duration
}

func NewRegistry(
	client *store.Client,
	refreshTTL, maxIdle time.Duration,
) Registry {
	if maxIdle <= 0 {
		maxIdle = 30 * 24 * time.Hour
	}
	return &registry{
		client:     client,
		refreshTTL: refreshTTL,
		maxIdle:    maxIdle,
	}
}

// Create deactivates every prior session for the user, then upserts the new
// one. The two remote writes are sequential, not atomic: two interleaved
// logins can both end up active. Known race, documented behavior.
func (r *registry) Create(
	ctx context.Context,
	userID, deviceID string,
	deviceInfo map[string]any,
	refreshToken string,
) error {
	deactivate := store.NewFilters().Eq("user_id", userID)
	err := r.client.Update(ctx, sessionsTable, deactivate, map[string]any{
		"is_active": false,
	})
	if err != nil {
		return fmt.Errorf("deactivate prior sessions: %w", err)
	}

	session := Session{
		UserID:           userID,
		DeviceID:         deviceID,
		DeviceInfo:       deviceInfo,
		RefreshTokenHash: core.HashToken(refreshToken),
		IsActive:         true,
		ExpiresAt:        time.Now().UTC().Add(r.refreshTTL),
	}

	err = r.client.Insert(
		ctx,
		sessionsTable,
		session,
		"resolution=merge-duplicates",
		nil,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *registry) ActiveSessions(
	ctx context.Context,
	userID string,
) ([]Session, error) {
	var sessions []Session
	filters := store.NewFilters().
		Eq("user_id", userID).
		Eq("is_active", "true")

	if err := r.client.Select(ctx, sessionsTable, filters, &sessions); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	return sessions, nil
}

// Validate looks up the active session matching the refresh token hash. The
// last-activity update is best-effort; a failed write never fails the call.
func (r *registry) Validate(
	ctx context.Context,
	userID, refreshToken string,
) (*Session, error) {
	var sessions []Session
	filters := store.NewFilters().
		Eq("user_id", userID).
		Eq("refresh_token_hash", core.HashToken(refreshToken)).
		Eq("is_active", "true")

	if err := r.client.Select(ctx, sessionsTable, filters, &sessions); err != nil {
		return nil, fmt.Errorf("validate session: %w", core.ErrSessionInvalid)
	}

	if len(sessions) == 0 {
		return nil, fmt.Errorf("validate session: %w", core.ErrSessionInvalid)
	}

	session := sessions[0]
	if session.IsExpired(time.Now().UTC()) {
		return nil, fmt.Errorf(
			"validate session: expired: %w",
			core.ErrSessionInvalid,
		)
	}

	touch := store.NewFilters().Eq("id", session.ID)
	err := r.client.Update(ctx, sessionsTable, touch, map[string]any{
		"last_activity": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn("session activity update failed",
			"user_id", userID,
			"error", err,
		)
	}

	return &session, nil
}

// Invalidate deactivates one session (matching the token) or, with an empty
// token, every session for the user. Errors are logged and swallowed: the
// user-visible logout contract always succeeds.
func (r *registry) Invalidate(
	ctx context.Context,
	userID, refreshToken string,
) {
	filters := store.NewFilters().Eq("user_id", userID)
	if refreshToken != "" {
		filters.Eq("refresh_token_hash", core.HashToken(refreshToken))
	}

	fields := map[string]any{
		"is_active":     false,
		"last_activity": time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.client.Update(ctx, sessionsTable, filters, fields); err != nil {
		slog.Warn("session invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// CleanupExpired deactivates sessions past expiry and deletes sessions idle
// beyond the retention window. Runs at process startup.
func (r *registry) CleanupExpired(ctx context.Context) error {
	now := time.Now().UTC()

	expired := store.NewFilters().
		Lt("expires_at", now.Format(time.RFC3339)).
		Eq("is_active", "true")
	err := r.client.Update(ctx, sessionsTable, expired, map[string]any{
		"is_active": false,
	})
	if err != nil {
		return fmt.Errorf("deactivate expired sessions: %w", err)
	}

	stale := store.NewFilters().
		Lt("expires_at", now.Add(-r.maxIdle).Format(time.RFC3339))
	if err := r.client.Delete(ctx, sessionsTable, stale); err != nil {
		return fmt.Errorf("delete stale sessions: %w", err)
	}

	return nil
}
