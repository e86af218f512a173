// Package login реализует HTTP-обработчик аутентификации пользователей.
//
// При успешном входе access- и refresh-токены выдаются в httpOnly-куках,
// access-токен дополнительно возвращается в теле ответа для клиентов,
// работающих через заголовок Authorization.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/plan-gate/internal/config"
	"github.com/magabrotheeeer/plan-gate/internal/http/cookies"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/auth"
)

// Request — структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (access, refresh string, user *models.User, err error)
}

// Handler обрабатывает HTTP-запросы авторизации.
type Handler struct {
	log      *slog.Logger
	service  Service
	tokens   config.Tokens
	secure   bool
	validate *validator.Validate
}

// New создает новый экземпляр Handler. Флаг secure управляет атрибутом
// Secure у кук сессии.
func New(log *slog.Logger, service Service, tokens config.Tokens, secure bool) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		tokens:   tokens,
		secure:   secure,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Выдает токены сессии в httpOnly-куках.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	access, refresh, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Error("invalid credentials", slog.String("email", req.Email))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	cookies.SetAccessToken(w, access, h.tokens.AccessTTL, h.secure)
	cookies.SetRefreshToken(w, refresh, h.tokens.RefreshTTL, h.secure)

	log.Info("login success", slog.String("uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"accessToken": access,
		"user":        user.Public(),
	}))
}
