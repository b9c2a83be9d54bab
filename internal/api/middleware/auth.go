package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"signalbot/pkg/crypto"
	"signalbot/pkg/utils"
)

// Auth - middleware проверки bearer-токена панели управления
//
// Назначение:
// Защищает /api/v1 от неавторизованного доступа. В конфигурации хранится
// только bcrypt-хеш (CONTROL_TOKEN_HASH), токен выдаёт `tradectl token new`.
//
// Поведение:
// - пустой хеш: авторизация выключена (dev), запросы проходят
// - нет заголовка Authorization: Bearer <token> -> 401
// - токен не совпал с хешем -> 401
//
// bcrypt стоит сотни миллисекунд, поэтому последний принятый токен
// запоминается и дальше сравнивается за constant time.
type Auth struct {
	hash string

	mu       sync.RWMutex
	accepted []byte
}

// NewAuth создает middleware; hash может быть пустым
func NewAuth(hash string) *Auth {
	return &Auth{hash: hash}
}

// Enabled - true, если хеш задан
func (a *Auth) Enabled() bool {
	return a.hash != ""
}

// Middleware оборачивает handler проверкой токена
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		if !a.verify(token) {
			utils.L().Warn("rejected control token",
				utils.String("path", r.URL.Path),
				utils.String("remote", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) verify(token string) bool {
	a.mu.RLock()
	cached := a.accepted
	a.mu.RUnlock()
	if cached != nil && subtle.ConstantTimeCompare(cached, []byte(token)) == 1 {
		return true
	}

	if err := crypto.VerifyToken(token, a.hash); err != nil {
		return false
	}

	a.mu.Lock()
	a.accepted = []byte(token)
	a.mu.Unlock()
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeError пишет ответ в формате handlers.ErrorResponse
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
