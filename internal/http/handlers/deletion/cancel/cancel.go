// Package cancel реализует HTTP-обработчик отмены пакета удаления.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	CancelDeletion(ctx context.Context, batchID uuid.UUID) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить удаление
// @Description Снимает резерв квоты пакета без учёта удалений.
// @Tags Deletion
// @Produce json
// @Param id path string true "ID пакета"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Пакет не найден"
// @Router /deletions/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.deletion.cancel"
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

	if err := h.service.CancelDeletion(r.Context(), batchID); err != nil {
		log.Error("failed to cancel deletion", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("deletion batch cancelled", slog.String("batch_id", batchID.String()))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"cancelled": batchID,
	}))
}
