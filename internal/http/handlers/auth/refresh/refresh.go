// Package refresh реализует HTTP-обработчик обновления access-токена.
//
// Новый access-токен выдается по refresh-куке; сама refresh-кука при этом
// не перевыпускается и доживает свой исходный срок.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/plan-gate/internal/config"
	"github.com/magabrotheeeer/plan-gate/internal/http/cookies"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики обновления токена.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы обновления access-токена.
type Handler struct {
	log     *slog.Logger
	service Service
	tokens  config.Tokens
	secure  bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, tokens config.Tokens, secure bool) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tokens:  tokens,
		secure:  secure,
	}
}

// ServeHTTP godoc
// @Summary Обновление access-токена
// @Description Выдает новый access-токен по refresh-куке. Refresh-кука не перевыпускается.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Новый access-токен"
// @Failure 401 {object} response.ErrorResponse "Refresh-токен отсутствует или невалиден"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /auth/refresh [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cookie, err := r.Cookie(cookies.RefreshTokenName)
	if err != nil || cookie.Value == "" {
		log.Error("missing refresh token cookie")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	access, user, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRefreshToken):
			log.Error("invalid refresh token", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid or expired token"))
		case errors.Is(err, services.ErrUserNotFound):
			log.Error("user not found", sl.Err(err))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("refresh failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	cookies.SetAccessToken(w, access, h.tokens.AccessTTL, h.secure)

	log.Info("access token refreshed", slog.String("uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"accessToken": access,
		"user":        user.Public(),
	}))
}
