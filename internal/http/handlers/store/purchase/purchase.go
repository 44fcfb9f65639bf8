// Package purchase реализует HTTP-обработчик покупки продукта.
//
// Каждый исход покупки отображается в свой HTTP-статус: успех 200, ожидание
// подтверждения 202, отмена 409, недоступный магазин 502, непрошедшая
// проверка транзакции 403. Тело ответа всегда содержит PurchaseResult.
package purchase

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

// Request: тело запроса покупки.
type Request struct {
	ProductID string `json:"product_id" validate:"required"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс покупки.
type Service interface {
	Purchase(ctx context.Context, productID string) models.PurchaseResult
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Купить продукт
// @Tags Store
// @Accept json
// @Produce json
// @Param request body Request true "Идентификатор продукта"
// @Success 200 {object} response.Response "Покупка завершена"
// @Success 202 {object} response.Response "Покупка ожидает подтверждения"
// @Failure 403 {object} response.Response "Транзакция не прошла проверку"
// @Failure 409 {object} response.Response "Покупка отменена"
// @Failure 502 {object} response.Response "Ошибка магазина"
// @Router /purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.store.purchase"
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

	res := h.service.Purchase(r.Context(), req.ProductID)
	if err := res.Err(); err != nil {
		status := response.HTTPStatus(err)
		log.Info("purchase not completed",
			slog.String("outcome", string(res.Outcome)),
			slog.Int("http_status", status))
		w.WriteHeader(status)
		if res.Outcome == models.PurchasePending {
			render.JSON(w, r, response.OKWithData(res))
			return
		}
		render.JSON(w, r, response.ErrorWithData(string(res.Outcome), res))
		return
	}

	log.Info("purchase completed", slog.String("status", string(res.Status)))
	render.JSON(w, r, response.OKWithData(res))
}
