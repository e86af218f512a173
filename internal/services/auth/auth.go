// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
	"github.com/magabrotheeeer/plan-gate/internal/lib/password"
	"github.com/magabrotheeeer/plan-gate/internal/models"
	"github.com/magabrotheeeer/plan-gate/internal/storage"
)

// Ошибки аутентификации, различимые обработчиками через errors.Is.
var (
	// ErrUserExists — email уже занят другим пользователем.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials — неизвестный email или неверный пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken — refresh-токен истёк или подделан.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// trialPeriod — длительность бесплатного пробного периода при регистрации.
const trialPeriod = 7 * 24 * time.Hour

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// PlanRecordRepository описывает контракт журнала активаций тарифов.
type PlanRecordRepository interface {
	// CreatePlanRecord добавляет запись журнала и возвращает её ID.
	CreatePlanRecord(ctx context.Context, rec models.PlanRecord) (int64, error)
}

// AuthService отвечает за регистрацию, авторизацию и refresh-цикл токенов.
type AuthService struct {
	users    UserRepository
	records  PlanRecordRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, records PlanRecordRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		records:  records,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной
// ролью "user", тарифом free и пробным периодом. В журнал активаций
// добавляется запись о бесплатном пробном тарифе.
func (s *AuthService) Register(ctx context.Context, username, email, rawPassword string) (*models.User, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	trialExpiry := time.Now().UTC().Add(trialPeriod)
	user := models.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashed,
		Role:         "user", // дефолтная роль при регистрации
		CurrentPlan:  models.PlanFree,
		PlanExpiry:   &trialExpiry,
	}

	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	user.UID = uid

	if _, err = s.records.CreatePlanRecord(ctx, models.PlanRecord{
		UserUID:   uid,
		PlanType:  models.PlanFree,
		StartDate: time.Now().UTC(),
		EndDate:   trialExpiry,
		Status:    models.PlanStatusActive,
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login проверяет пароль пользователя и выпускает пару токенов
// (access + refresh). Неизвестный email и неверный пароль неразличимы
// для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (access, refresh string, user *models.User, err error) {
	user, err = s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, err
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}
	access, err = s.jwtMaker.GenerateAccessToken(user.UID, user.Role)
	if err != nil {
		return "", "", nil, err
	}
	refresh, err = s.jwtMaker.GenerateRefreshToken(user.UID, user.Role)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, user, nil
}

// Refresh проверяет refresh-токен и выпускает новый access-токен.
// Сам refresh-токен не продлевается и не ротируется.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, *models.User, error) {
	claims, err := s.jwtMaker.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetUser(ctx, claims.UserUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	access, err := s.jwtMaker.GenerateAccessToken(user.UID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return access, user, nil
}

// GetUser возвращает пользователя по UID для аутентифицированных запросов.
func (s *AuthService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
