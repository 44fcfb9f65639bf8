package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
)

// RateLimitMiddleware ограничивает частоту запросов limit запросами в секунду
// с допустимым всплеском burst. Неположительный limit отключает ограничение.
func RateLimitMiddleware(limit float64, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(limit), max(burst, 1))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
