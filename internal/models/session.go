package models

import "time"

// Session: доказательство аутентификации, выданное бэкендом.
// Консоль не интерпретирует токен, кроме извлечения идентичности пользователя.
type Session struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserIdentity `json:"user"`
}

// AuthEvent: тип перехода состояния аутентификации.
type AuthEvent string

const (
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthChange: уведомление об изменении сессии, которое бэкенд рассылает подписчикам.
// Session равна nil после выхода.
type AuthChange struct {
	Event   AuthEvent `json:"event"`
	Session *Session  `json:"session,omitempty"`
}
