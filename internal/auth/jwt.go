// AngelaMos | 2026
// jwt.go

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// TokenManager mints and verifies the signed access/refresh pair. Tokens are
// HS256-signed claims bound to a user and device; they are not encrypted.
type TokenManager struct {
	key    jwk.Key
	config config.JWTConfig
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &TokenManager{
		key:    key,
		config: cfg,
	}, nil
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type TokenClaims struct {
	UserID   string
	DeviceID string
	Kind     string
}

// IssuePair creates a fresh access/refresh token pair for a user on a
// specific device.
func (m *TokenManager) IssuePair(
	userID, deviceID string,
) (*TokenPair, error) {
	access, err := m.issue(userID, deviceID, TokenKindAccess, m.config.AccessTokenExpire)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := m.issue(userID, deviceID, TokenKindRefresh, m.config.RefreshTokenExpire)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (m *TokenManager) issue(
	userID, deviceID, kind string,
	ttl time.Duration,
) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Issuer(m.config.Issuer).
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("device_id", deviceID).
		Claim("type", kind).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// Verify validates signature, expiry, and kind, and returns the claims.
// Failures map to the token error taxonomy; all are caller-visible as
// unauthorized.
func (m *TokenManager) Verify(
	tokenString, expectedKind string,
) (*TokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var kind string
	if err := token.Get("type", &kind); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing type claim: %w",
			core.ErrTokenInvalid,
		)
	}

	if kind != expectedKind {
		return nil, fmt.Errorf(
			"verify token: got %s, want %s: %w",
			kind,
			expectedKind,
			core.ErrTokenKindMismatch,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var deviceID string
	if err := token.Get("device_id", &deviceID); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing device_id claim: %w",
			core.ErrTokenInvalid,
		)
	}

	return &TokenClaims{
		UserID:   subject,
		DeviceID: deviceID,
		Kind:     kind,
	}, nil
}

// VerifyAccessToken adapts Verify for the authentication middleware.
func (m *TokenManager) VerifyAccessToken(
	tokenString string,
) (userID, deviceID string, err error) {
	claims, err := m.Verify(tokenString, TokenKindAccess)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.DeviceID, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
