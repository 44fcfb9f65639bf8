// Package restore реализует HTTP-обработчик восстановления покупок.
package restore

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

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Restore(ctx context.Context) (models.UserProfile, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Восстановить покупки
// @Description Синхронизирует покупки с магазином и пересчитывает статус.
// @Tags Store
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response "Магазин недоступен, в data последний известный профиль"
// @Router /restore [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.restore"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, err := h.service.Restore(r.Context())
	if err != nil {
		log.Error("failed to restore purchases", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.ErrorWithData("could not restore purchases", p))
		return
	}

	log.Info("purchases restored", slog.String("status", string(p.SubscriptionStatus)))
	render.JSON(w, r, response.OKWithData(p))
}
