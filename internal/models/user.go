// Package models содержит доменные структуры консоли: учётные записи, профили с ролями,
// рестораны, подписки и сессии, выданные бэкендом.
package models

import "time"

// Role: роль профиля. Определяет, какие разделы консоли доступны пользователю.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRestaurant Role = "restaurant"
	RoleCustomer   Role = "customer"
)

// Valid сообщает, входит ли роль в известный набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRestaurant, RoleCustomer:
		return true
	}
	return false
}

// User: учётная запись бэкенда, по которой выполняется вход.
type User struct {
	ID           string    // Уникальный идентификатор (uuid)
	Email        string    // Электронная почта, логин
	PasswordHash string    // bcrypt-хэш пароля
	CreatedAt    time.Time // Дата создания
}

// UserIdentity: идентичность пользователя, которую бэкенд отдаёт вместе с сессией.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile хранит роль и отображаемое имя. Создаётся при заведении аккаунта,
// консоль его только читает.
type Profile struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// DisplayName возвращает имя для приветствия, при его отсутствии, email.
func (p *Profile) DisplayName(fallback string) string {
	if p == nil || p.FullName == "" {
		return fallback
	}
	return p.FullName
}
