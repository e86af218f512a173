// Package list реализует HTTP-обработчик списка доступных возможностей.
//
// Набор возможностей определяется действующим тарифом пользователя:
// тариф сначала проходит ленивую проверку срока, затем по нему берётся
// префикс каталога возможностей.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/featuregate"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/plan"
)

// Service описывает интерфейс бизнес-логики тарифов.
type Service interface {
	GetPlan(ctx context.Context, userUID string) (*models.PlanState, error)
}

// Handler обрабатывает запросы списка возможностей.
type Handler struct {
	log     *slog.Logger
	service Service
	gate    *featuregate.Gate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, gate *featuregate.Gate) *Handler {
	return &Handler{log: log, service: service, gate: gate}
}

// ServeHTTP godoc
// @Summary Доступные возможности
// @Description Возвращает список возможностей, открытых действующим тарифом пользователя.
// @Tags Features
// @Produce  json
// @Success 200 {object} response.Response "Список возможностей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /features [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.features.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	state, err := h.service.GetPlan(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("uid", userUID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	features := h.gate.FeaturesFor(state.CurrentPlan)

	render.JSON(w, r, response.OKWithData(map[string]any{
		"currentPlan": state.CurrentPlan,
		"features":    features,
	}))
}
