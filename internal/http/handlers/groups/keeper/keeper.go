// Package keeper реализует HTTP-обработчик выбора сохраняемого элемента группы.
package keeper

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
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Request: индекс элемента, который нужно сохранить.
type Request struct {
	Index int `json:"index"`
}

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	SetKeeper(ctx context.Context, id uuid.UUID, index int) (models.DuplicateGroup, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выбрать сохраняемый элемент
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "ID группы"
// @Param request body Request true "Индекс элемента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Группа не найдена"
// @Failure 409 {object} response.ErrorResponse "Элемент входит в незавершённый пакет удаления"
// @Failure 422 {object} response.ErrorResponse "Индекс вне границ группы"
// @Router /groups/{id}/keeper [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.keeper"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid group id", sl.Err(err))
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

	g, err := h.service.SetKeeper(r.Context(), id, req.Index)
	if err != nil {
		log.Error("failed to set keeper", slog.Int("index", req.Index), sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("keeper updated", slog.String("group_id", id.String()), slog.Int("index", req.Index))
	render.JSON(w, r, response.OKWithData(g))
}
