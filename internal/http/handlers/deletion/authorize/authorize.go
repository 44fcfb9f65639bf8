// Package authorize реализует HTTP-обработчик предварительной авторизации удаления.
//
// Обработчик не расходует квоту: он лишь сообщает, сколько из запрошенных
// файлов можно удалить прямо сейчас.
package authorize

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Request: тело запроса авторизации.
type Request struct {
	Count int `json:"count" validate:"gte=0"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Authorize(ctx context.Context, n int) (models.Decision, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизовать удаление
// @Tags Deletion
// @Accept json
// @Produce json
// @Param request body Request true "Количество файлов"
// @Success 200 {object} response.Response "Разрешено полностью или частично"
// @Failure 402 {object} response.Response "Дневная квота исчерпана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /authorize [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deletion.authorize"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	d, err := h.service.Authorize(r.Context(), req.Count)
	if err != nil && !d.Allowed && d.Reason == "" {
		log.Error("failed to authorize deletion", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not authorize deletion"))
		return
	}
	if err != nil {
		log.Warn("decision made with persistence error", sl.Err(err))
	}

	if !d.Allowed {
		log.Info("deletion denied", slog.String("reason", string(d.Reason)))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithData(string(d.Reason), d))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"decision": d,
		"partial":  d.Partial(req.Count),
	}))
}
