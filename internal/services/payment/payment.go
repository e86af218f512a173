// Package services содержит бизнес-логику платежей: создание hosted
// checkout-сессии и идемпотентную сверку подтверждённой оплаты с
// состоянием тарифа пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/plan-gate/internal/config"
	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	"github.com/magabrotheeeer/plan-gate/internal/paymentprovider"
	"github.com/magabrotheeeer/plan-gate/internal/storage"
)

// Ошибки сверки платежа; каждая предпроверка — отдельный режим отказа.
var (
	// ErrMissingSession — не передан идентификатор checkout-сессии.
	ErrMissingSession = errors.New("missing session id")
	// ErrUnauthenticated — вызов без аутентифицированного пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidPlan — запрошен несуществующий или бесплатный тариф.
	ErrInvalidPlan = errors.New("invalid plan type")
	// ErrInvalidPlanMetadata — в метаданных сессии нет корректного тарифа.
	ErrInvalidPlanMetadata = errors.New("invalid plan in session metadata")
	// ErrPaymentIncomplete — провайдер не подтверждает оплату сессии.
	ErrPaymentIncomplete = errors.New("payment not completed")
	// ErrOwnershipMismatch — сессия оплачена другим пользователем.
	ErrOwnershipMismatch = errors.New("payment does not belong to user")
	// ErrProviderUnavailable — провайдер недоступен или не ответил вовремя.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderMisconfigured — для тарифа не настроены продукт или цена.
	ErrProviderMisconfigured = errors.New("payment provider is not configured for plan")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// paidPlanPeriod — срок действия купленного тарифа с момента подтверждения.
const paidPlanPeriod = 30 * 24 * time.Hour

// ProviderClient определяет интерфейс для работы с платёжным провайдером.
type ProviderClient interface {
	CreateSession(ctx context.Context, req paymentprovider.CreateSessionRequest) (*paymentprovider.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutSession, error)
}

// PaymentRepository определяет методы хранилища, нужные для сверки платежа.
type PaymentRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// FindPlanRecordBySessionID ищет запись журнала по checkout-сессии.
	FindPlanRecordBySessionID(ctx context.Context, sessionID string) (*models.PlanRecord, bool, error)
	// ApplyPlanPurchase транзакционно применяет покупку тарифа.
	ApplyPlanPurchase(ctx context.Context, userUID string, plan models.PlanType,
		expiry time.Time, sessionID string) (*models.PlanRecord, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Invalidate(key string) error
}

// PaymentService реализует создание checkout-сессий и сверку оплат.
type PaymentService struct {
	repo     PaymentRepository
	provider ProviderClient
	cache    Cache
	cfg      config.Checkout
	log      *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, provider ProviderClient, cache Cache,
	cfg config.Checkout, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:     repo,
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		log:      log,
	}
}

// CreateCheckout создает hosted checkout-сессию для покупки платного тарифа
// и возвращает URL страницы оплаты. Метаданные сессии несут пользователя и
// тариф — по ним при возврате проводится сверка.
func (s *PaymentService) CreateCheckout(ctx context.Context, userUID string, plan models.PlanType) (string, error) {
	if userUID == "" {
		return "", ErrUnauthenticated
	}
	if !plan.Paid() {
		return "", ErrInvalidPlan
	}
	if _, err := s.repo.GetUser(ctx, userUID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	productID, price, err := s.planProduct(plan)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateSession(ctx, paymentprovider.CreateSessionRequest{
		ProductID:  productID,
		UnitAmount: int64(price) * 100,
		Currency:   "usd",
		Quantity:   1,
		Mode:       "payment",
		SuccessURL: s.cfg.FrontendOrigin + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.FrontendOrigin + "/payment/cancel",
		Metadata: map[string]string{
			paymentprovider.MetadataUserUID:  userUID,
			paymentprovider.MetadataPlanType: string(plan),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	s.log.Info("checkout session created",
		slog.String("session_id", session.ID), slog.String("plan", string(plan)))
	return session.URL, nil
}

// Confirm сверяет завершённую checkout-сессию с провайдером и применяет
// покупку тарифа не более одного раза на сессию.
//
// Предпроверки выполняются по порядку, каждая — отдельный режим отказа:
// наличие session id, аутентификация, корректный тариф в метаданных,
// статус "paid", принадлежность сессии вызывающему. Повторная сверка той
// же сессии возвращает уже применённое состояние без каких-либо изменений.
func (s *PaymentService) Confirm(ctx context.Context, userUID, sessionID string) (*models.PlanState, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if userUID == "" {
		return nil, ErrUnauthenticated
	}

	// сессия уже применена — короткое замыкание без похода к провайдеру
	state, found, err := s.findApplied(ctx, userUID, sessionID)
	if err != nil {
		return nil, err
	}
	if found {
		return state, nil
	}

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	plan := models.PlanType(session.Metadata[paymentprovider.MetadataPlanType])
	if !plan.Paid() {
		return nil, ErrInvalidPlanMetadata
	}
	if session.PaymentStatus != paymentprovider.PaymentStatusPaid {
		return nil, ErrPaymentIncomplete
	}
	if session.Metadata[paymentprovider.MetadataUserUID] != userUID {
		return nil, ErrOwnershipMismatch
	}

	expiry := time.Now().UTC().Add(paidPlanPeriod)
	rec, err := s.repo.ApplyPlanPurchase(ctx, userUID, plan, expiry, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionAlreadyApplied) {
			// проигрыш гонки параллельной сверки той же сессии
			state, found, ferr := s.findApplied(ctx, userUID, sessionID)
			if ferr != nil {
				return nil, ferr
			}
			if found {
				return state, nil
			}
		}
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err = s.cache.Invalidate(PlanCacheKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("user_uid", userUID), sl.Err(err))
	}

	s.log.Info("plan purchase applied",
		slog.String("session_id", sessionID), slog.String("plan", string(plan)))
	return &models.PlanState{
		CurrentPlan: rec.PlanType,
		PlanExpiry:  &rec.EndDate,
	}, nil
}

// findApplied ищет уже применённую запись по checkout-сессии.
// Чужая запись отражается как ErrOwnershipMismatch.
func (s *PaymentService) findApplied(ctx context.Context, userUID, sessionID string) (*models.PlanState, bool, error) {
	rec, found, err := s.repo.FindPlanRecordBySessionID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if rec.UserUID != userUID {
		return nil, true, ErrOwnershipMismatch
	}
	endDate := rec.EndDate
	return &models.PlanState{
		CurrentPlan: rec.PlanType,
		PlanExpiry:  &endDate,
	}, true, nil
}

// PlanCacheKey возвращает ключ кеша состояния тарифа пользователя.
// Формат согласован с сервисом тарифов.
func PlanCacheKey(userUID string) string {
	return "plan:" + userUID
}

func (s *PaymentService) planProduct(plan models.PlanType) (string, int, error) {
	var productID string
	var price int
	switch plan {
	case models.PlanBasic:
		productID, price = s.cfg.BasicProductID, s.cfg.BasicPrice
	case models.PlanNormal:
		productID, price = s.cfg.NormalProductID, s.cfg.NormalPrice
	case models.PlanPro:
		productID, price = s.cfg.ProProductID, s.cfg.ProPrice
	}
	if productID == "" || price <= 0 {
		return "", 0, fmt.Errorf("%w: %s", ErrProviderMisconfigured, plan)
	}
	return productID, price, nil
}
