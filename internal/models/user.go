// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и кешированное состояние
// текущего тарифного плана. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
//
// Поля CurrentPlan и PlanExpiry — денормализованный кеш последнего
// активного тарифа; источником истины служит журнал PlanRecord.
type User struct {
	UID          string     // Уникальный идентификатор пользователя
	Username     string     // Имя пользователя
	Email        string     // Электронная почта (уникальная, в нижнем регистре)
	PasswordHash string     // Хэш пароля пользователя
	Role         string     // Роль пользователя, admin или user
	CurrentPlan  PlanType   // Текущий тарифный план
	PlanExpiry   *time.Time // Дата истечения тарифа, nil — без срока
	CreatedAt    time.Time  // Дата регистрации
}

// PublicUser — представление пользователя для JSON-ответов,
// без хэша пароля и служебных полей.
type PublicUser struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	CurrentPlan PlanType   `json:"currentPlan"`
	PlanExpiry  *time.Time `json:"planExpiry"`
}

// Public конвертирует User в PublicUser.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.UID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		CurrentPlan: u.CurrentPlan,
		PlanExpiry:  u.PlanExpiry,
	}
}
