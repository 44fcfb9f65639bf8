package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Groups() []models.DuplicateGroup
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список групп дубликатов
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Response
// @Router /groups [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	groups := h.service.Groups()

	var deletable int64
	for _, g := range groups {
		deletable += g.DeletableSize()
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"groups":         groups,
		"deletable_size": deletable,
	}))
}
