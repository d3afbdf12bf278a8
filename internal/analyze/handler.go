// AngelaMos | 2026
// handler.go

package analyze

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/chefbot-api/internal/config"
	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/middleware"
	"github.com/angelamos/chefbot-api/internal/quota"
	"github.com/angelamos/chefbot-api/internal/user"
)

// maxUploadBytes bounds the ingredient photo size.
const maxUploadBytes = 10 << 20

type Handler struct {
	users   *user.Service
	tracker *quota.Tracker
	gateway Gateway
	gemini  config.GeminiConfig
}

func NewHandler(
	users *user.Service,
	tracker *quota.Tracker,
	gateway Gateway,
	gemini config.GeminiConfig,
) *Handler {
	return &Handler{
		users:   users,
		tracker: tracker,
		gateway: gateway,
		gemini:  gemini,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.Analyze)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.gemini.ResolveProvider() == config.ProviderNone {
		core.ServiceUnavailable(w, "image analysis is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		core.BadRequest(w, "expected multipart form with an image file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		core.BadRequest(w, "could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		core.BadRequest(w, "uploaded file must be an image")
		return
	}

	userID := middleware.GetUserID(ctx)
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.Unauthorized(w, "account no longer exists")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.tracker.CheckMonthly(ctx, u); err != nil {
		writeLimitError(w, err)
		return
	}

	if err := h.tracker.CheckHourly(ctx, u); err != nil {
		writeLimitError(w, err)
		return
	}

	h.tracker.Delay(ctx, u)

	prompt := r.FormValue("prompt")

	result, err := h.gateway.Analyze(ctx, image, mimeType, prompt)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			slog.Error("vision api rejected request",
				"status", upstream.Status,
				"body", upstream.Body,
			)
			status := upstream.Status
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			core.JSONError(w, core.NewAppError(
				err,
				"image analysis failed upstream",
				status,
				"UPSTREAM_ERROR",
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, result)
}

type limitErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Limit   int    `json:"limit"`
	ResetAt string `json:"reset_at,omitempty"`
}

type limitErrorEnvelope struct {
	Success bool           `json:"success"`
	Error   limitErrorBody `json:"error"`
}

// writeLimitError renders quota denials as 429 with the limit that was hit
// and, for monthly quotas, when it resets.
func writeLimitError(w http.ResponseWriter, err error) {
	var limitErr *quota.LimitError
	if !errors.As(err, &limitErr) {
		core.InternalServerError(w, err)
		return
	}

	code := "RATE_LIMITED"
	if limitErr.Kind == "monthly" {
		code = "QUOTA_EXCEEDED"
	}

	body := limitErrorBody{
		Code:    code,
		Message: limitErr.Error(),
		Limit:   limitErr.Limit,
	}
	if !limitErr.ResetAt.IsZero() {
		body.ResetAt = limitErr.ResetAt.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(limitErrorEnvelope{
		Success: false,
		Error:   body,
	})
}
