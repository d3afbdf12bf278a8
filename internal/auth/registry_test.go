// AngelaMos | 2026
// registry_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/store"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Prefer string
	Body   map[string]any
}

func newFakeStore(
	handler http.HandlerFunc,
) (Registry, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := store.NewClient(config.DataAPIConfig{
		URL: srv.URL,
		Key: "service-key",
	})
	registry := NewRegistry(client, 7*24*time.Hour, 30*24*time.Hour)
	return registry, srv
}

func TestRegistryCreateDeactivatesThenUpserts(t *testing.T) {
	var requests []recordedRequest
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Prefer: r.Header.Get("Prefer"),
		}
		//nolint:errcheck
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		requests = append(requests, rec)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	err := registry.Create(
		context.Background(),
		"u-1",
		"phone-1",
		map[string]any{"os": "ios"},
		"refresh-token",
	)
	require.NoError(t, err)

	require.Len(t, requests, 2)

	// First call deactivates every session the user holds.
	assert.Equal(t, http.MethodPatch, requests[0].Method)
	assert.Equal(t, "/rest/v1/user_sessions", requests[0].Path)
	assert.Contains(t, requests[0].Query, "user_id=eq.u-1")
	assert.Equal(t, false, requests[0].Body["is_active"])

	// Second call upserts the new session with the hashed token.
	assert.Equal(t, http.MethodPost, requests[1].Method)
	assert.Equal(t, "resolution=merge-duplicates", requests[1].Prefer)
	assert.Equal(t, "phone-1", requests[1].Body["device_id"])
	assert.Equal(t,
		core.HashToken("refresh-token"),
		requests[1].Body["refresh_token_hash"],
	)
	assert.NotContains(t, requests[1].Body, "refresh_token",
		"raw token must never reach the store")
	assert.NotContains(t, requests[1].Body, "created_at",
		"the creation timestamp is owned by the store default")
}

func TestRegistryValidateMatchesTokenHash(t *testing.T) {
	var patches int
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			query := r.URL.Query()
			assert.Equal(t, "eq.u-1", query.Get("user_id"))
			assert.Equal(t,
				"eq."+core.HashToken("refresh-token"),
				query.Get("refresh_token_hash"),
			)
			assert.Equal(t, "eq.true", query.Get("is_active"))
			//nolint:errcheck
			_, _ = w.Write([]byte(
				`[{"id":"s-1","user_id":"u-1","device_id":"phone-1",` +
					`"is_active":true,"expires_at":"2030-01-01T00:00:00Z"}]`,
			))
		case http.MethodPatch:
			patches++
			w.WriteHeader(http.StatusNoContent)
		}
	})
	defer srv.Close()

	session, err := registry.Validate(
		context.Background(),
		"u-1",
		"refresh-token",
	)
	require.NoError(t, err)
	assert.Equal(t, "phone-1", session.DeviceID)
	assert.Equal(t, 1, patches, "validation touches last_activity")
}

func TestRegistryCreatePayloadOmitsZeroTimestamps(t *testing.T) {
	var inserted map[string]any
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			//nolint:errcheck
			_ = json.NewDecoder(r.Body).Decode(&inserted)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	err := registry.Create(
		context.Background(),
		"u-1",
		"phone-1",
		nil,
		"refresh-token",
	)
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.NotContains(t, inserted, "created_at")
	assert.NotContains(t, inserted, "last_activity")
	assert.NotEmpty(t, inserted["expires_at"])
}

func TestRegistryValidateNoMatch(t *testing.T) {
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck
		_, _ = w.Write([]byte(`[]`))
	})
	defer srv.Close()

	_, err := registry.Validate(context.Background(), "u-1", "refresh-token")
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
}

func TestRegistryValidateSurvivesActivityWriteFailure(t *testing.T) {
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			//nolint:errcheck
			_, _ = w.Write([]byte(
				`[{"id":"s-1","user_id":"u-1","device_id":"phone-1",` +
					`"is_active":true,"expires_at":"2030-01-01T00:00:00Z"}]`,
			))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	session, err := registry.Validate(
		context.Background(),
		"u-1",
		"refresh-token",
	)
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID)
}

func TestRegistryValidateRejectsExpiredSession(t *testing.T) {
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		//nolint:errcheck
		_, _ = w.Write([]byte(
			`[{"id":"s-1","user_id":"u-1","device_id":"phone-1",` +
				`"is_active":true,"expires_at":"2020-01-01T00:00:00Z"}]`,
		))
	})
	defer srv.Close()

	_, err := registry.Validate(context.Background(), "u-1", "refresh-token")
	assert.ErrorIs(t, err, core.ErrSessionInvalid)
}

func TestRegistryInvalidateSwallowsErrors(t *testing.T) {
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	// Must not panic or surface anything.
	registry.Invalidate(context.Background(), "u-1", "refresh-token")
	registry.Invalidate(context.Background(), "u-1", "")
}

func TestRegistryCleanupExpired(t *testing.T) {
	var requests []recordedRequest
	registry, srv := newFakeStore(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Query:  r.URL.RawQuery,
		})
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	require.NoError(t, registry.CleanupExpired(context.Background()))

	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPatch, requests[0].Method)
	assert.Contains(t, requests[0].Query, "expires_at=lt.")
	assert.Contains(t, requests[0].Query, "is_active=eq.true")
	assert.Equal(t, http.MethodDelete, requests[1].Method)
	assert.Contains(t, requests[1].Query, "expires_at=lt.")
}
