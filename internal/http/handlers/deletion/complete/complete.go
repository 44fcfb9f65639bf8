// Package complete реализует HTTP-обработчик завершения пакета удаления.
package complete

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
)

// Request содержит ID фактически удалённых элементов.
type Request struct {
	DeletedIDs []string `json:"deleted_ids"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CompleteDeletion(ctx context.Context, batchID uuid.UUID, deletedIDs []string) (engine.Completion, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Завершить удаление
// @Description Учитывает удалённые элементы пакета и снимает резерв квоты.
// @Tags Deletion
// @Accept json
// @Produce json
// @Param id path string true "ID пакета"
// @Param request body Request true "Удалённые элементы"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Пакет не найден или истёк"
// @Router /deletions/{id}/complete [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deletion.complete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	batchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid batch id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	c, err := h.service.CompleteDeletion(r.Context(), batchID, req.DeletedIDs)
	if err != nil && c.BatchID == uuid.Nil {
		log.Error("failed to complete deletion", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	if err != nil {
		log.Warn("deletion recorded with persistence error", sl.Err(err))
	}

	render.JSON(w, r, response.OKWithData(c))
}
