// Package cookies управляет HTTP-куками с токенами сессии.
//
// Access- и refresh-токены выдаются в httpOnly-куках: браузерный код
// не имеет к ним доступа, а срок жизни куки совпадает со сроком жизни
// самого токена. Secure выставляется только в продакшене, чтобы
// локальная разработка работала без TLS.
package cookies

import (
	"net/http"
	"time"
)

const (
	// AccessTokenName — имя куки с access-токеном.
	AccessTokenName = "accessToken"
	// RefreshTokenName — имя куки с refresh-токеном.
	RefreshTokenName = "refreshToken"
)

// SetAccessToken устанавливает куку с access-токеном на срок ttl.
func SetAccessToken(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	set(w, AccessTokenName, token, ttl, secure)
}

// SetRefreshToken устанавливает куку с refresh-токеном на срок ttl.
func SetRefreshToken(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	set(w, RefreshTokenName, token, ttl, secure)
}

// Clear сбрасывает обе куки сессии. Операция идемпотентна: сброс
// отсутствующей куки не является ошибкой.
func Clear(w http.ResponseWriter, secure bool) {
	expire(w, AccessTokenName, secure)
	expire(w, RefreshTokenName, secure)
}

func set(w http.ResponseWriter, name, value string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func expire(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
