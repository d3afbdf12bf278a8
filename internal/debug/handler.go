// AngelaMos | 2026
// handler.go

package debug

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
)

// Handler exposes a runtime configuration snapshot for operators. Mounted
// behind authentication; secrets are never included.
type Handler struct {
	cfg   *config.Config
	redis *core.Redis
}

func NewHandler(cfg *config.Config, redis *core.Redis) *Handler {
	return &Handler{
		cfg:   cfg,
		redis: redis,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/status", h.Status)
}

type statusResponse struct {
	App      appInfo      `json:"app"`
	Provider providerInfo `json:"provider"`
	Limits   limitInfo    `json:"limits"`
	Redis    redisInfo    `json:"redis"`
}

type appInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type providerInfo struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	KeyPreview string `json:"key_preview"`
}

type limitInfo struct {
	FreeMaxMonthly int    `json:"free_max_monthly"`
	FreeDelay      string `json:"free_delay"`
	FreePerHour    int    `json:"free_per_hour"`
	ProPerHour     int    `json:"pro_per_hour"`
}

type redisInfo struct {
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		App: appInfo{
			Name:        h.cfg.App.Name,
			Version:     h.cfg.App.Version,
			Environment: h.cfg.App.Environment,
		},
		Provider: providerInfo{
			Provider:   h.cfg.Gemini.ResolveProvider(),
			Model:      h.cfg.Gemini.Model,
			KeyPreview: h.cfg.Gemini.KeyPreview(),
		},
		Limits: limitInfo{
			FreeMaxMonthly: h.cfg.Limits.FreeMaxMonthly,
			FreeDelay:      h.cfg.Limits.FreeDelay.String(),
			FreePerHour:    h.cfg.Limits.FreePerHour,
			ProPerHour:     h.cfg.Limits.ProPerHour,
		},
	}

	if h.redis != nil {
		stats := h.redis.PoolStats()
		resp.Redis = redisInfo{
			TotalConns: stats.TotalConns,
			IdleConns:  stats.IdleConns,
			Hits:       stats.Hits,
			Misses:     stats.Misses,
		}
	}

	core.OK(w, resp)
}
