// Package products реализует HTTP-обработчик каталога продуктов магазина.
package products

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
	Products(ctx context.Context) ([]models.ProductInfo, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог продуктов
// @Tags Store
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse "Магазин недоступен"
// @Router /products [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.products"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.Products(r.Context())
	if err != nil {
		log.Error("failed to fetch products", sl.Err(err))
		w.WriteHeader(response.HTTPStatus(err))
		render.JSON(w, r, response.Error("could not fetch products"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"products": list,
	}))
}
