// Package snapshot реализует HTTP-обработчик чтения текущего профиля.
package snapshot

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Handler возвращает профиль и остаток бесплатной квоты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения профиля.
type Service interface {
	Snapshot(ctx context.Context) (models.UserProfile, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий профиль
// @Description Возвращает статус подписки и счётчик удалений за сегодня.
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.snapshot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, err := h.service.Snapshot(r.Context())
	if err != nil && !p.SubscriptionStatus.Valid() {
		log.Error("failed to read profile", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not read profile"))
		return
	}
	if err != nil {
		log.Warn("profile read with persistence error", sl.Err(err))
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"profile":   p,
		"unlimited": p.SubscriptionStatus.Unlimited(),
		"remaining": max(models.FreeFileLimit-p.FilesDeletedToday, 0),
	}))
}
