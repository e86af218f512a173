// Package checkoutsuccess обрабатывает возврат пользователя со страницы оплаты.
//
// Обработчик сверяет завершённую checkout-сессию с провайдером и применяет
// покупку тарифа. Повторный заход по той же ссылке возвращает уже применённое
// состояние без изменений.
package checkoutsuccess

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/payment"
)

// Service описывает интерфейс сверки завершённой checkout-сессии.
type Service interface {
	Confirm(ctx context.Context, userUID, sessionID string) (*models.PlanState, error)
}

// Handler обрабатывает запросы сверки оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты
// @Description Сверяет checkout-сессию с провайдером и применяет покупку тарифа не более одного раза.
// @Tags Payments
// @Produce  json
// @Param session_id query string true "Идентификатор checkout-сессии"
// @Success 200 {object} response.Response "Тариф применен"
// @Failure 400 {object} response.ErrorResponse "Отсутствует session_id, некорректные метаданные или незавершенная оплата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Сессия принадлежит другому пользователю"
// @Failure 500 {object} response.ErrorResponse "Ошибка платежного провайдера"
// @Router /payment/success [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutsuccess"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	sessionID := r.URL.Query().Get("session_id")

	state, err := h.service.Confirm(r.Context(), userUID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingSession):
			log.Error("missing session_id query parameter")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("missing session_id"))
		case errors.Is(err, services.ErrUnauthenticated):
			log.Error("user UID not found in context")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("authentication required"))
		case errors.Is(err, services.ErrInvalidPlanMetadata):
			log.Error("invalid plan in session metadata", slog.String("session_id", sessionID))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid session metadata"))
		case errors.Is(err, services.ErrPaymentIncomplete):
			log.Error("payment not completed", slog.String("session_id", sessionID))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment not completed"))
		case errors.Is(err, services.ErrOwnershipMismatch):
			log.Error("session belongs to another user", slog.String("session_id", sessionID))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		case errors.Is(err, services.ErrProviderUnavailable):
			// текст провайдера наружу не отдаём, секреты могут утечь
			log.Error("payment provider error", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("payment provider error"))
		default:
			log.Error("failed to confirm payment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("plan purchase applied",
		slog.String("uid", userUID), slog.String("plan", string(state.CurrentPlan)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message":     "plan activated",
		"currentPlan": state.CurrentPlan,
		"planExpiry":  state.PlanExpiry,
	}))
}
