package models

import "time"

const (
	// PlanTrial: тарифный план пробной подписки.
	PlanTrial = "trial"
	// SubscriptionStatusTrial: статус подписки в пробном периоде.
	SubscriptionStatusTrial = "trial"
	// TrialDays: длительность пробного периода в календарных днях.
	TrialDays = 14
)

// Subscription: подписка ресторана. На один ресторан приходится не более одной записи,
// уникальность обеспечивает бэкенд.
type Subscription struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	PlanType     string    `json:"plan_type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `json:"status"`
}
