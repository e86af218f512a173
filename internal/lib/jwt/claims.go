// Package jwt реализует выпуск и парсинг JWT токенов двух классов:
// короткоживущий access-токен и долгоживущий refresh-токен.
//
// Токены подписываются разными секретами и не взаимозаменяемы:
// токен, выпущенный как access, не проходит проверку refresh-секретом
// и наоборот. Состояние на сервере не хранится — отзыв выпущенного
// токена до истечения срока невозможен.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserUID              string `json:"user_uid"` // Идентификатор пользователя
	Role                 string `json:"role"`     // Роль пользователя
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс для выпуска и парсинга токенов обоих классов.
type Maker interface {
	// GenerateAccessToken выпускает короткоживущий access-токен.
	GenerateAccessToken(userUID, role string) (string, error)
	// GenerateRefreshToken выпускает долгоживущий refresh-токен.
	GenerateRefreshToken(userUID, role string) (string, error)
	// ParseAccessToken проверяет access-токен и возвращает claims.
	ParseAccessToken(tokenStr string) (*CustomClaims, error)
	// ParseRefreshToken проверяет refresh-токен и возвращает claims.
	ParseRefreshToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с парой секретных ключей
// и временем жизни каждого класса токенов.
type MakerImpl struct {
	accessSecret  string        // Секретный ключ access-токенов
	refreshSecret string        // Секретный ключ refresh-токенов
	accessTTL     time.Duration // Время жизни access-токена
	refreshTTL    time.Duration // Время жизни refresh-токена
}

// NewMaker создаёт новый экземпляр MakerImpl.
func NewMaker(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}
