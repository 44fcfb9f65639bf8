// Package history реализует HTTP-обработчик чтения истории очистки.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	History(ctx context.Context) []models.CleanupRecord
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История очистки
// @Description Записи очистки, новые первыми.
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Response
// @Router /history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	records := h.service.History(r.Context())
	log.Debug("history read", slog.Int("records", len(records)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"records": records,
	}))
}
