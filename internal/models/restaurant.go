package models

import "time"

// RestaurantStatus: статус заявки ресторана.
type RestaurantStatus string

const (
	StatusPending  RestaurantStatus = "pending"
	StatusApproved RestaurantStatus = "approved"
	StatusRejected RestaurantStatus = "rejected"
)

// LocalizedText: строка в нескольких локалях: код языка → текст.
type LocalizedText map[string]string

// In возвращает текст на языке lang, иначе английский вариант, иначе любой непустой.
func (t LocalizedText) In(lang string) string {
	if s := t[lang]; s != "" {
		return s
	}
	if s := t["en"]; s != "" {
		return s
	}
	for _, s := range t {
		if s != "" {
			return s
		}
	}
	return ""
}

// Restaurant: ресторан-заявитель. Консоль меняет у него только статус.
type Restaurant struct {
	ID                string           `json:"id"`
	Name              LocalizedText    `json:"name"`
	Phone             *string          `json:"phone_number"`
	Status            RestaurantStatus `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	ProfileID         string           `json:"profile_id"`
	OwnerEmail        string           `json:"owner_email,omitempty"`
	SubscriptionCount int              `json:"-"` // Число связанных подписок (left join)
}

// Activatable сообщает, можно ли ресторану активировать пробную подписку:
// он одобрен и не имеет ни одной подписки.
func (r Restaurant) Activatable() bool {
	return r.Status == StatusApproved && r.SubscriptionCount == 0
}
