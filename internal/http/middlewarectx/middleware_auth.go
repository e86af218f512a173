// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware достаёт access-токен из куки сессии или заголовка
// Authorization, валидирует его локально через jwt.Maker и в случае успеха
// добавляет в контекст UID пользователя и роль для дальнейшего использования
// в обработчиках.
//
// Отсутствие токена и невалидный токен — разные режимы отказа: первый
// возвращает HTTP 401 Unauthorized, второй — HTTP 403 Forbidden.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/plan-gate/internal/http/cookies"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для UID пользователя в контексте
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// TokenParser описывает интерфейс для проверки access-токена.
type TokenParser interface {
	ParseAccessToken(token string) (*jwt.CustomClaims, error)
}

// extractToken ищет access-токен сначала в куке сессии, затем в заголовке
// Authorization. Пустая строка означает, что токен не предъявлен.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(cookies.AccessTokenName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// JWTMiddleware возвращает HTTP middleware, который проверяет access-токен
// из куки или заголовка Authorization.
//
// Если токен валиден, добавляет UID пользователя и роль в контекст запроса.
func JWTMiddleware(maker TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := extractToken(r)
			if tokenStr == "" {
				log.Error("missing access token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			claims, err := maker.ParseAccessToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
