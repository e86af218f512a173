// Package featuregate отображает тарифный план на список доступных
// функциональных модулей дашборда.
//
// Каталог модулей упорядочен, каждому тарифу сопоставлено количество
// доступных модулей; результат — префикс каталога этой длины.
// Согласованность каталога и отображения проверяется при создании Gate,
// а не предполагается молча: рост каталога требует роста отображения.
package featuregate

import (
	"fmt"

	"github.com/magabrotheeeer/plan-gate/internal/models"
)

// Feature описывает один функциональный модуль дашборда.
type Feature struct {
	ID        int             `json:"id"`        // Порядковый идентификатор
	Name      string          `json:"name"`      // Отображаемое имя модуля
	MinPlan   models.PlanType `json:"plan"`      // Минимальный тариф для доступа
	Component string          `json:"component"` // Имя компонента на клиенте
}

// tierOrder — тарифы по возрастанию; определяет порядок проверки лимитов.
var tierOrder = []models.PlanType{
	models.PlanFree,
	models.PlanBasic,
	models.PlanNormal,
	models.PlanPro,
}

// Gate хранит проверенный каталог модулей и лимиты тарифов.
type Gate struct {
	catalogue []Feature
	limits    map[models.PlanType]int
}

// New создает Gate, проверяя согласованность каталога и лимитов:
// лимит задан для каждого тарифа, лимиты не убывают по порядку тарифов,
// лимит старшего тарифа равен длине каталога, а минимальный тариф каждого
// модуля не превышает первый тариф, которому модуль становится доступен.
func New(catalogue []Feature, limits map[models.PlanType]int) (*Gate, error) {
	const op = "featuregate.New"

	prev := -1
	for _, tier := range tierOrder {
		limit, ok := limits[tier]
		if !ok {
			return nil, fmt.Errorf("%s: no limit for plan %q", op, tier)
		}
		if limit < prev {
			return nil, fmt.Errorf("%s: limit for plan %q decreases", op, tier)
		}
		if limit > len(catalogue) {
			return nil, fmt.Errorf("%s: limit for plan %q exceeds catalogue size", op, tier)
		}
		for i := prev; i < limit; i++ {
			if i >= 0 && !tier.AtLeast(catalogue[i].MinPlan) {
				return nil, fmt.Errorf("%s: feature %q requires plan %q but is unlocked at %q",
					op, catalogue[i].Name, catalogue[i].MinPlan, tier)
			}
		}
		prev = limit
	}
	if limits[tierOrder[len(tierOrder)-1]] != len(catalogue) {
		return nil, fmt.Errorf("%s: top plan must unlock the whole catalogue", op)
	}

	return &Gate{catalogue: catalogue, limits: limits}, nil
}

// Default возвращает Gate со встроенным каталогом дашборда.
func Default() (*Gate, error) {
	catalogue := []Feature{
		{ID: 1, Name: "Text Processor", MinPlan: models.PlanBasic, Component: "TextProcessor"},
		{ID: 2, Name: "Counter", MinPlan: models.PlanBasic, Component: "Counter"},
		{ID: 3, Name: "Task Manager", MinPlan: models.PlanBasic, Component: "TaskManager"},
		{ID: 4, Name: "Word Counter", MinPlan: models.PlanNormal, Component: "WordCounter"},
		{ID: 5, Name: "QR Code Generator", MinPlan: models.PlanPro, Component: "QRCodeGenerator"},
	}
	limits := map[models.PlanType]int{
		models.PlanFree:   0,
		models.PlanBasic:  3,
		models.PlanNormal: 4,
		models.PlanPro:    5,
	}
	return New(catalogue, limits)
}

// FeaturesFor возвращает префикс каталога, доступный тарифу plan.
// Неизвестный тариф получает пустой список.
func (g *Gate) FeaturesFor(plan models.PlanType) []Feature {
	limit, ok := g.limits[plan]
	if !ok {
		return []Feature{}
	}
	out := make([]Feature, limit)
	copy(out, g.catalogue[:limit])
	return out
}
