// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/chefbot-api/internal/core"
)

type stubVerifier struct {
	userID   string
	deviceID string
	err      error
}

func (s *stubVerifier) VerifyAccessToken(
	_ string,
) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return s.userID, s.deviceID, nil
}

func runAuthenticated(
	verifier TokenVerifier,
	authHeader string,
) (*httptest.ResponseRecorder, string, string) {
	var gotUser, gotDevice string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotDevice = GetDeviceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	Authenticator(verifier)(next).ServeHTTP(rec, req)
	return rec, gotUser, gotDevice
}

func TestAuthenticatorMissingToken(t *testing.T) {
	rec, _, _ := runAuthenticated(&stubVerifier{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorMalformedHeader(t *testing.T) {
	rec, _, _ := runAuthenticated(&stubVerifier{}, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorValidToken(t *testing.T) {
	verifier := &stubVerifier{userID: "u-1", deviceID: "phone-1"}
	rec, gotUser, gotDevice := runAuthenticated(verifier, "Bearer sometoken")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", gotUser)
	assert.Equal(t, "phone-1", gotDevice)
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	verifier := &stubVerifier{err: core.ErrTokenExpired}
	rec, _, _ := runAuthenticated(verifier, "Bearer sometoken")

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "TOKEN_EXPIRED", envelope.Error.Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, ExtractToken(req))
}
