// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
)

// The plain login and signup flows mint tokens bound to a pseudo device so
// they share the token shape with login-secure.
const (
	deviceSignup = "signup"
	deviceLogin  = "login"
)

type Service struct {
	users    *user.Service
	registry Registry
	tokens   *TokenManager
}

func NewService(
	users *user.Service,
	registry Registry,
	tokens *TokenManager,
) *Service {
	return &Service{
		users:    users,
		registry: registry,
		tokens:   tokens,
	}
}

func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.authResponse(u, deviceSignup)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	u, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	return s.authResponse(u, deviceLogin)
}

// LoginSecure enforces the one-device policy: when another device already
// holds an active session the login is refused rather than taken over.
func (s *Service) LoginSecure(
	ctx context.Context,
	req SecureLoginRequest,
) (*AuthResponse, error) {
	u, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	sessions, err := s.registry.ActiveSessions(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("check active sessions: %w", err)
	}

	for _, session := range sessions {
		if session.DeviceID != req.DeviceID {
			return nil, fmt.Errorf(
				"login: another device holds the session: %w",
				core.ErrDeviceConflict,
			)
		}
	}

	pair, err := s.tokens.IssuePair(u.ID, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	err = s.registry.Create(
		ctx,
		u.ID,
		req.DeviceID,
		req.DeviceInfo,
		pair.RefreshToken,
	)
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	return &AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserPayload(u),
	}, nil
}

// Refresh rotates the token pair. The refresh token must verify as a
// refresh-kind token and match an active session; the session is rewritten
// with the new token hash.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*AuthResponse, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	session, err := s.registry.Validate(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(claims.UserID, session.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	err = s.registry.Create(
		ctx,
		claims.UserID,
		session.DeviceID,
		session.DeviceInfo,
		pair.RefreshToken,
	)
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserPayload(u),
	}, nil
}

// Logout never fails from the caller's point of view. An invalid token or a
// failed remote write is logged and reported as success.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		slog.Warn("logout with unverifiable token", "error", err)
		return
	}

	s.registry.Invalidate(ctx, claims.UserID, refreshToken)
}

// Me returns the profile, rolling the usage month forward first when the
// stored marker is stale.
func (s *Service) Me(ctx context.Context, userID string) (*MeResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.users.RollUsageMonth(ctx, u)

	return &MeResponse{
		ID:           u.ID,
		Email:        u.Email,
		Plan:         u.Plan,
		MonthlyUsage: u.MonthlyUsage,
		UsageMonth:   u.UsageMonth,
		CreatedAt:    u.CreatedAt,
	}, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	s.registry.Invalidate(ctx, userID, "")
	return s.users.Delete(ctx, userID)
}

func (s *Service) CleanupSessions(ctx context.Context) error {
	return s.registry.CleanupExpired(ctx)
}

// authenticate resolves credentials to a user. Unknown email and wrong
// password both return ErrInvalidCredentials, with the same hashing work
// done in either case.
func (s *Service) authenticate(
	ctx context.Context,
	email, password string,
) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.VerifyPasswordTimingSafe(password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !core.VerifyPasswordTimingSafe(password, &u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if core.NeedsRehash(u.PasswordHash) {
		if newHash, hashErr := core.HashPassword(password); hashErr == nil {
			//nolint:errcheck // best-effort legacy hash upgrade
			_ = s.users.UpdatePassword(ctx, u.ID, newHash)
		}
	}

	return u, nil
}

func (s *Service) authResponse(
	u *user.User,
	deviceID string,
) (*AuthResponse, error) {
	pair, err := s.tokens.IssuePair(u.ID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toUserPayload(u),
	}, nil
}

func toUserPayload(u *user.User) UserPayload {
	return UserPayload{
		ID:    u.ID,
		Email: u.Email,
		Plan:  u.Plan,
	}
}
