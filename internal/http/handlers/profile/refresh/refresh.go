// Package refresh реализует HTTP-обработчик пересчёта статуса подписки по
// актуальным правам из магазина.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
)

// Request: тело запроса. Пустое тело означает возврат приложения на передний план.
type Request struct {
	Trigger string `json:"trigger" validate:"omitempty,oneof=launch foreground"`
}

// Handler пересчитывает статус подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс пересчёта статуса.
type Service interface {
	Refresh(ctx context.Context, trigger subscription.Trigger) (models.UserProfile, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить статус подписки
// @Description Сканирует текущие права и пересчитывает статус. При недоступном магазине возвращает последний известный профиль с флагом stale.
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body Request false "Триггер пересчёта"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	trigger := subscription.TriggerForeground
	if req.Trigger != "" {
		trigger = subscription.Trigger(req.Trigger)
	}

	p, err := h.service.Refresh(r.Context(), trigger)
	stale := false
	if err != nil {
		if !p.SubscriptionStatus.Valid() {
			log.Error("failed to refresh profile", sl.Err(err))
			w.WriteHeader(response.HTTPStatus(err))
			render.JSON(w, r, response.Error("could not refresh profile"))
			return
		}
		log.Warn("refresh degraded to cached profile", sl.Err(err))
		stale = true
	}

	log.Info("profile refreshed",
		slog.String("trigger", string(trigger)),
		slog.String("status", string(p.SubscriptionStatus)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"profile": p,
		"stale":   stale,
	}))
}
