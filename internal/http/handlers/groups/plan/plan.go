// Package plan реализует HTTP-обработчик предварительного расчёта массового удаления.
package plan

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/duplicates"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Plan(ids ...uuid.UUID) (duplicates.Plan, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary План массового удаления
// @Description Считает количество и размер удаляемых дубликатов. Без параметра ids берутся все группы.
// @Tags Groups
// @Produce json
// @Param ids query string false "ID групп через запятую"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Группа не найдена"
// @Router /groups/plan [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.groups.plan"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var ids []uuid.UUID
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				log.Error("invalid group id", slog.String("id", s), sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid id"))
				return
			}
			ids = append(ids, id)
		}
	}

	p, err := h.service.Plan(ids...)
	if err != nil {
		log.Error("failed to build plan", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	render.JSON(w, r, response.OKWithData(p))
}
