package repository

import (
	"context"
	"fmt"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// InsertSubscription вставляет подписку и возвращает её ID. Если у ресторана
// уже есть подписка, возвращается storage.ErrUniqueViolation.
func (s *Storage) InsertSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.InsertSubscription"

	query := `INSERT INTO subscriptions (restaurant_id, plan_type, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id::text`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		sub.RestaurantID, sub.PlanType,
		sub.StartDate.Format("2006-01-02"), sub.EndDate.Format("2006-01-02"),
		sub.Status).Scan(&id)
	if err != nil {
		return "", mapError(op, err)
	}
	return id, nil
}

// SubscriptionsByRestaurant возвращает подписки ресторана.
func (s *Storage) SubscriptionsByRestaurant(ctx context.Context, restaurantID string) ([]models.Subscription, error) {
	const op = "storage.SubscriptionsByRestaurant"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id::text, restaurant_id::text, plan_type, start_date, end_date, status
		 FROM subscriptions WHERE restaurant_id = $1 ORDER BY created_at`, restaurantID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var result []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.RestaurantID, &sub.PlanType,
			&sub.StartDate, &sub.EndDate, &sub.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
