package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAccessToken создает access-токен с заданными userUID и role,
// подписывая его access-секретом. Время жизни токена определяется accessTTL.
func (j *MakerImpl) GenerateAccessToken(userUID, role string) (string, error) {
	return j.generate(userUID, role, j.accessSecret, j.accessTTL)
}

// GenerateRefreshToken создает refresh-токен с заданными userUID и role,
// подписывая его refresh-секретом. Время жизни токена определяется refreshTTL.
func (j *MakerImpl) GenerateRefreshToken(userUID, role string) (string, error) {
	return j.generate(userUID, role, j.refreshSecret, j.refreshTTL)
}

func (j *MakerImpl) generate(userUID, role, secret string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		UserUID: userUID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken парсит access-токен, проверяет подпись access-секретом
// и срок действия, возвращает CustomClaims, если токен корректен.
func (j *MakerImpl) ParseAccessToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseAccessToken"
	return j.parse(op, tokenStr, j.accessSecret)
}

// ParseRefreshToken парсит refresh-токен, проверяет подпись refresh-секретом
// и срок действия, возвращает CustomClaims, если токен корректен.
func (j *MakerImpl) ParseRefreshToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseRefreshToken"
	return j.parse(op, tokenStr, j.refreshSecret)
}

func (j *MakerImpl) parse(op, tokenStr, secret string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
