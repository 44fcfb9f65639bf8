// Package load реализует HTTP-обработчик загрузки групп дубликатов от детектора.
package load

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

// Request: набор групп, найденных детектором.
type Request struct {
	Groups []models.DuplicateGroup `json:"groups" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс замены набора групп.
type Service interface {
	LoadGroups(ctx context.Context, groups []models.DuplicateGroup) ([]models.DuplicateGroup, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Загрузить группы дубликатов
// @Description Заменяет текущий набор групп. Группы меньше чем из двух элементов отбрасываются.
// @Description Пока открыт пакет удаления, набор не меняется.
// @Tags Groups
// @Accept json
// @Produce json
// @Param request body Request true "Группы дубликатов"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Открыт пакет удаления"
// @Router /groups [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.load"
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

	loaded, err := h.service.LoadGroups(r.Context(), req.Groups)
	if err != nil {
		log.Error("failed to load groups", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	log.Info("groups loaded", slog.Int("received", len(req.Groups)), slog.Int("loaded", len(loaded)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"loaded": len(loaded),
		"groups": loaded,
	}))
}
