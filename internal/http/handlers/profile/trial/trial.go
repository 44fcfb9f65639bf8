// Package trial реализует HTTP-обработчик запуска пробного периода.
package trial

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
	StartTrial(ctx context.Context) (models.UserProfile, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Запустить пробный период
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Пробный период недоступен"
// @Router /trial [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.trial"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, err := h.service.StartTrial(r.Context())
	if err != nil {
		log.Error("failed to start trial", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.ErrorWithData(err.Error(), p))
		return
	}

	log.Info("trial started", slog.Any("trial_end", p.TrialEndDate))
	render.JSON(w, r, response.OKWithData(p))
}
