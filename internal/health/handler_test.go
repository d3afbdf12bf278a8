// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/chefbot-api/internal/config"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(_ context.Context) error {
	return s.err
}

func TestStatusReportsProvider(t *testing.T) {
	h := NewHandler(config.GeminiConfig{
		APIKey:   "AIzaSyTest1234567890",
		Model:    "gemini-1.5-flash",
		Provider: "auto",
	}, &stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status ProviderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "gemini", status.Provider)
	assert.Equal(t, "gemini-1.5-flash", status.Model)
	assert.True(t, status.HasKey)
	assert.Equal(t, "AIzaSyTe...", status.KeyPreview)
}

func TestStatusWithoutKey(t *testing.T) {
	h := NewHandler(config.GeminiConfig{
		Model:    "gemini-1.5-flash",
		Provider: "auto",
	}, &stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status ProviderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "none", status.Provider)
	assert.False(t, status.HasKey)
	assert.Empty(t, status.KeyPreview)
}

func TestLiveness(t *testing.T) {
	h := NewHandler(config.GeminiConfig{}, &stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetShutdown(true)
	rec = httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadinessDegradedWhenStoreDown(t *testing.T) {
	h := NewHandler(
		config.GeminiConfig{},
		&stubChecker{err: errors.New("unreachable")},
		&stubChecker{},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	require.Len(t, resp.Checks, 2)

	byName := map[string]HealthCheck{}
	for _, check := range resp.Checks {
		byName[check.Name] = check
	}
	assert.False(t, byName["data_api"].Healthy)
	assert.True(t, byName["redis"].Healthy)
}

func TestReadinessOK(t *testing.T) {
	h := NewHandler(config.GeminiConfig{}, &stubChecker{}, &stubChecker{})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
