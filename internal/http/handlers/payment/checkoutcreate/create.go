// Package checkoutcreate обрабатывает создание checkout-сессии для покупки тарифа.
package checkoutcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/http/response"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	services "github.com/magabrotheeeer/plan-gate/internal/services/payment"
)

// Request — входные данные для создания checkout-сессии.
type Request struct {
	PlanType string `json:"planType" validate:"required,oneof=basic normal pro"`
}

// Service описывает интерфейс бизнес-логики создания checkout-сессии.
type Service interface {
	CreateCheckout(ctx context.Context, userUID string, plan models.PlanType) (string, error)
}

// Handler обрабатывает запросы на создание checkout-сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать checkout-сессию
// @Description Создает hosted checkout-сессию у платежного провайдера и возвращает URL страницы оплаты.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Покупаемый тариф"
// @Success 200 {object} response.Response "URL страницы оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка платежного провайдера"
// @Router /payment/create-checkout-session [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkoutcreate"

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

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	url, err := h.service.CreateCheckout(r.Context(), userUID, models.PlanType(req.PlanType))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			log.Error("user UID not found in context")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("authentication required"))
		case errors.Is(err, services.ErrInvalidPlan):
			log.Error("plan is not purchasable", slog.String("plan", req.PlanType))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("plan is not purchasable"))
		case errors.Is(err, services.ErrUserNotFound):
			log.Error("user not found", slog.String("uid", userUID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, services.ErrProviderUnavailable),
			errors.Is(err, services.ErrProviderMisconfigured):
			// текст провайдера наружу не отдаём, секреты могут утечь
			log.Error("payment provider error", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("payment provider error"))
		default:
			log.Error("failed to create checkout session", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("checkout session created", slog.String("plan", req.PlanType))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url": url,
	}))
}
