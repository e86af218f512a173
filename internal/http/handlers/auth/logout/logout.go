// Package logout реализует HTTP-обработчик завершения сессии.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/plan-gate/internal/http/cookies"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
)

// Handler обрабатывает HTTP-запросы выхода из сессии.
type Handler struct {
	log    *slog.Logger
	secure bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, secure bool) *Handler {
	return &Handler{log: log, secure: secure}
}

// ServeHTTP godoc
// @Summary Выход из сессии
// @Description Сбрасывает куки сессии. Операция идемпотентна: повторный выход не является ошибкой.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Сессия завершена"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cookies.Clear(w, h.secure)

	log.Info("session cleared")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "logged out",
	}))
}
