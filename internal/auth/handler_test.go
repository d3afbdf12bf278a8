// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/chefbot-api/internal/middleware"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, _, _ := newTestService(t)
	handler := NewHandler(svc)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, middleware.Authenticator(svc.tokens))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(
	t *testing.T,
	url string,
	body any,
) (*http.Response, map[string]any) {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	//nolint:errcheck // some endpoints answer with empty bodies
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHandlerSignupFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "kitchen-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])

	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cook@example.com", userBody["email"])
	assert.Equal(t, "free", userBody["plan"])

	// Second signup with the same email conflicts.
	resp, _ = postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "kitchen-secret",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandlerSignupValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "kitchen-secret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerLoginInvalidCredentials(t *testing.T) {
	srv := newTestServer(t)

	_, _ = postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "kitchen-secret",
	})

	resp, _ := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"email":    "cook@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerLoginSecureConflict(t *testing.T) {
	srv := newTestServer(t)

	_, _ = postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "kitchen-secret",
	})

	resp, _ := postJSON(t, srv.URL+"/auth/login-secure", map[string]any{
		"email":     "cook@example.com",
		"password":  "kitchen-secret",
		"device_id": "phone-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+"/auth/login-secure", map[string]any{
		"email":     "cook@example.com",
		"password":  "kitchen-secret",
		"device_id": "tablet-2",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errBody["message"], "another device")
}

func TestHandlerLogoutAlwaysOK(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/auth/logout", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	// Even an empty body logs out fine.
	resp, _ = postJSON(t, srv.URL+"/auth/logout", map[string]string{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerRefreshRejectsGarbage(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerMeAndDelete(t *testing.T) {
	srv := newTestServer(t)

	_, signup := postJSON(t, srv.URL+"/auth/signup", map[string]string{
		"email":    "cook@example.com",
		"password": "kitchen-secret",
	})
	token, _ := signup["token"].(string)
	require.NotEmpty(t, token)

	// Without a token the profile is off limits.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	//nolint:errcheck
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the token the profile comes back.
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)

	var me MeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	//nolint:errcheck
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cook@example.com", me.Email)

	// Deleting the account answers 204, and the token stops resolving.
	req, err = http.NewRequest(
		http.MethodDelete,
		srv.URL+"/auth/delete",
		nil,
	)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	//nolint:errcheck
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	//nolint:errcheck
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
