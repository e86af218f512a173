// Package models содержит доменные структуры тарифных планов:
// тип тарифа с полным порядком free < basic < normal < pro
// и запись журнала активаций PlanRecord.
package models

import "time"

// PlanType — тарифный план пользователя.
type PlanType string

// Возможные тарифные планы, упорядоченные по возрастанию.
const (
	PlanFree   PlanType = "free"
	PlanBasic  PlanType = "basic"
	PlanNormal PlanType = "normal"
	PlanPro    PlanType = "pro"
)

// planOrder задает полный порядок тарифов.
var planOrder = map[PlanType]int{
	PlanFree:   0,
	PlanBasic:  1,
	PlanNormal: 2,
	PlanPro:    3,
}

// Valid сообщает, является ли значение известным тарифом.
func (p PlanType) Valid() bool {
	_, ok := planOrder[p]
	return ok
}

// Paid сообщает, является ли тариф платным.
func (p PlanType) Paid() bool {
	return p.Valid() && p != PlanFree
}

// AtLeast сообщает, что тариф p не ниже тарифа other.
func (p PlanType) AtLeast(other PlanType) bool {
	return planOrder[p] >= planOrder[other]
}

// Статусы записи журнала активаций.
const (
	PlanStatusActive    = "active"
	PlanStatusExpired   = "expired"
	PlanStatusCancelled = "cancelled"
)

// PlanRecord — запись журнала активаций тарифов (append-only).
//
// Создается при регистрации (бесплатный пробный период) и при каждой
// успешной оплате. ProviderSessionID хранит идентификатор checkout-сессии
// провайдера и используется для дедупликации повторной обработки.
type PlanRecord struct {
	ID                int64      `json:"id"`
	UserUID           string     `json:"userId"`
	PlanType          PlanType   `json:"planType"`
	StartDate         time.Time  `json:"startDate"`
	EndDate           time.Time  `json:"endDate"`
	Status            string     `json:"status"`
	ProviderSessionID *string    `json:"providerSessionId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// PlanState — эффективное состояние тарифа, возвращаемое клиенту.
type PlanState struct {
	CurrentPlan PlanType   `json:"currentPlan"`
	PlanExpiry  *time.Time `json:"planExpiry"`
	IsExpired   bool       `json:"isExpired"`
}
