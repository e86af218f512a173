// Package services содержит бизнес-логику вычисления эффективного тарифа
// пользователя с ленивым списанием истекших планов и кешированием.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/plan-gate/internal/lib/sl"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	"github.com/magabrotheeeer/plan-gate/internal/storage"
)

// ErrUserNotFound — пользователь не найден.
var ErrUserNotFound = errors.New("user not found")

// planCacheTTL — время жизни кешированного состояния тарифа.
const planCacheTTL = 5 * time.Minute

// PlanRepository определяет методы хранилища, нужные для вычисления тарифа.
type PlanRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ClearPlanExpiry сбрасывает маркер истечения тарифа.
	ClearPlanExpiry(ctx context.Context, userUID string) error
	// DemoteUserToFree понижает пользователя до free и закрывает журнал.
	DemoteUserToFree(ctx context.Context, userUID string) error
	// ListPlanRecords возвращает журнал активаций пользователя.
	ListPlanRecords(ctx context.Context, userUID string) ([]*models.PlanRecord, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// PlanService вычисляет эффективный тариф пользователя.
type PlanService struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, cache Cache, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// PlanCacheKey возвращает ключ кеша состояния тарифа пользователя.
func PlanCacheKey(userUID string) string {
	return fmt.Sprintf("plan:%s", userUID)
}

// GetPlan возвращает эффективный тариф пользователя.
//
// Истечение тарифа списывается лениво, при чтении: у free очищается
// только маркер истечения (free — нижний тариф), платный тариф
// понижается до free с закрытием записи журнала. В обоих случаях
// IsExpired=true сообщается ровно один раз: повторное чтение уже
// очищенной записи возвращает IsExpired=false.
func (s *PlanService) GetPlan(ctx context.Context, userUID string) (*models.PlanState, error) {
	cacheKey := PlanCacheKey(userUID)

	var cached models.PlanState
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read plan from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && !expired(cached.PlanExpiry) {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	state := models.PlanState{
		CurrentPlan: user.CurrentPlan,
		PlanExpiry:  user.PlanExpiry,
	}

	if expired(user.PlanExpiry) {
		if user.CurrentPlan == models.PlanFree {
			// истёкший пробный период: очищается только маркер
			if err = s.repo.ClearPlanExpiry(ctx, userUID); err != nil {
				return nil, err
			}
		} else {
			if err = s.repo.DemoteUserToFree(ctx, userUID); err != nil {
				return nil, err
			}
		}
		state.CurrentPlan = models.PlanFree
		state.PlanExpiry = nil
		state.IsExpired = true

		// кешируется устойчивое состояние после списания, без IsExpired
		s.cacheState(cacheKey, models.PlanState{CurrentPlan: models.PlanFree})
		return &state, nil
	}

	s.cacheState(cacheKey, state)
	return &state, nil
}

// ListRecords возвращает журнал активаций тарифов пользователя.
func (s *PlanService) ListRecords(ctx context.Context, userUID string) ([]*models.PlanRecord, error) {
	return s.repo.ListPlanRecords(ctx, userUID)
}

func (s *PlanService) cacheState(key string, state models.PlanState) {
	ttl := planCacheTTL
	if state.PlanExpiry != nil {
		// кеш не должен пережить сам тариф
		if until := time.Until(*state.PlanExpiry); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(key, state, ttl); err != nil {
		s.log.Warn("failed to cache plan state", slog.String("key", key), sl.Err(err))
	}
}

func expired(expiry *time.Time) bool {
	return expiry != nil && expiry.Before(time.Now())
}
