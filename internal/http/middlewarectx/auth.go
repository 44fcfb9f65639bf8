// Package middlewarectx содержит HTTP middleware локального API:
// проверку токена доступа и ограничение частоты запросов.
package middlewarectx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/phone-cleaner/internal/http/response"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/apitoken"
	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
)

// TokenMiddleware возвращает middleware, который сверяет токен из заголовка
// Authorization с bcrypt-хешем tokenHash. Пустой хеш отключает проверку.
func TokenMiddleware(tokenHash string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokenHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TokenMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			if err := apitoken.Compare(tokenHash, strings.TrimPrefix(authHeader, "Bearer ")); err != nil {
				log.Warn("invalid api token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid api token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
