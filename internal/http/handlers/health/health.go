// Package health реализует проверку готовности локального API.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
)

// Handler отвечает на проверку готовности.
type Handler struct {
	ready <-chan struct{}
}

// New создает Handler. Канал ready закрывается, когда движок загрузил профиль.
func New(ready <-chan struct{}) *Handler {
	return &Handler{ready: ready}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} response.ErrorResponse "Движок ещё не готов"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.ready:
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("engine is starting"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
