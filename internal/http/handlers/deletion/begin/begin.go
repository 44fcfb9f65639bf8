// Package begin реализует HTTP-обработчик создания пакета удаления.
package begin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
)

// Request: тело запроса. Пустой GroupIDs означает все загруженные группы.
type Request struct {
	GroupIDs     []string `json:"group_ids" validate:"omitempty,dive,uuid"`
	AllowPartial bool     `json:"allow_partial"`
	Category     string   `json:"category"`
}

// Handler резервирует квоту под пакет удаления.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс создания пакета удаления.
type Service interface {
	BeginDeletion(ctx context.Context, req engine.DeletionRequest) (models.DeletionOutcome, error)
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
// @Summary Начать удаление
// @Description Планирует удаление дубликатов и резервирует квоту. Возвращает пакет с элементами, которые можно удалить.
// @Tags Deletion
// @Accept json
// @Produce json
// @Param request body Request true "Группы и режим частичного удаления"
// @Success 200 {object} response.Response "Пакет создан"
// @Failure 402 {object} response.Response "Нужна подписка"
// @Failure 404 {object} response.ErrorResponse "Группа не найдена"
// @Router /deletions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deletion.begin"
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

	ids := make([]uuid.UUID, 0, len(req.GroupIDs))
	for _, s := range req.GroupIDs {
		ids = append(ids, uuid.MustParse(s))
	}

	out, err := h.service.BeginDeletion(r.Context(), engine.DeletionRequest{
		GroupIDs:     ids,
		AllowPartial: req.AllowPartial,
		Category:     req.Category,
	})
	if err != nil && out.Batch == nil && !out.UpsellRequired {
		log.Error("failed to begin deletion", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	if err != nil {
		log.Warn("deletion planned with persistence error", sl.Err(err))
	}

	if out.Batch == nil && out.Requested > 0 {
		reason := string(out.Decision.Reason)
		if out.UpsellRequired && out.Decision.Allowed {
			reason = "upsell_required"
		}
		log.Info("deletion not started", slog.String("reason", reason))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithData(reason, out))
		return
	}

	render.JSON(w, r, response.OKWithData(out))
}
