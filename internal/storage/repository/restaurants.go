package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

// PendingRestaurants возвращает заявки со статусом pending, старые первыми.
func (s *Storage) PendingRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	const op = "storage.PendingRestaurants"

	query := `SELECT r.id::text, r.name, r.phone_number, r.status, r.created_at,
				r.profile_id::text, COALESCE(p.email, ''), 0
			  FROM restaurants r
			  LEFT JOIN profiles p ON p.id = r.profile_id
			  WHERE r.status = $1
			  ORDER BY r.created_at ASC, r.id ASC`
	rows, err := s.DB.QueryContext(ctx, query, string(models.StatusPending))
	if err != nil {
		return nil, mapError(op, err)
	}
	return scanRestaurants(op, rows)
}

// ActivatableRestaurants возвращает одобренные рестораны без подписки:
// left join к subscriptions, остаются строки без связанной записи.
func (s *Storage) ActivatableRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	const op = "storage.ActivatableRestaurants"

	query := `SELECT r.id::text, r.name, r.phone_number, r.status, r.created_at,
				r.profile_id::text, COALESCE(p.email, ''), COUNT(sub.id)
			  FROM restaurants r
			  LEFT JOIN profiles p ON p.id = r.profile_id
			  LEFT JOIN subscriptions sub ON sub.restaurant_id = r.id
			  WHERE r.status = $1
			  GROUP BY r.id, p.email
			  HAVING COUNT(sub.id) = 0
			  ORDER BY r.created_at ASC, r.id ASC`
	rows, err := s.DB.QueryContext(ctx, query, string(models.StatusApproved))
	if err != nil {
		return nil, mapError(op, err)
	}
	return scanRestaurants(op, rows)
}

// UpdateRestaurantStatus меняет статус одного ресторана.
func (s *Storage) UpdateRestaurantStatus(ctx context.Context, id string, status models.RestaurantStatus) error {
	const op = "storage.UpdateRestaurantStatus"

	res, err := s.DB.ExecContext(ctx, `UPDATE restaurants SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return mapError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}

// CreateRestaurant добавляет заявку ресторана. Используется провижинингом и тестами.
func (s *Storage) CreateRestaurant(ctx context.Context, r models.Restaurant) (string, error) {
	const op = "storage.CreateRestaurant"

	id, err := insertRestaurant(ctx, s.DB, r)
	if err != nil {
		return "", mapError(op, err)
	}
	return id, nil
}

func insertRestaurant(ctx context.Context, q queryer, r models.Restaurant) (string, error) {
	name, err := json.Marshal(r.Name)
	if err != nil {
		return "", err
	}
	status := r.Status
	if status == "" {
		status = models.StatusPending
	}

	var id string
	if r.CreatedAt.IsZero() {
		err = q.QueryRowContext(ctx,
			`INSERT INTO restaurants (name, phone_number, status, profile_id)
			 VALUES ($1, $2, $3, $4) RETURNING id::text`,
			name, r.Phone, string(status), r.ProfileID).Scan(&id)
	} else {
		err = q.QueryRowContext(ctx,
			`INSERT INTO restaurants (name, phone_number, status, profile_id, created_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id::text`,
			name, r.Phone, string(status), r.ProfileID, r.CreatedAt).Scan(&id)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func scanRestaurants(op string, rows *sql.Rows) ([]models.Restaurant, error) {
	defer rows.Close()

	result := make([]models.Restaurant, 0)
	for rows.Next() {
		var (
			r      models.Restaurant
			name   []byte
			phone  sql.NullString
			status string
		)
		if err := rows.Scan(&r.ID, &name, &phone, &status, &r.CreatedAt,
			&r.ProfileID, &r.OwnerEmail, &r.SubscriptionCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(name) > 0 {
			if err := json.Unmarshal(name, &r.Name); err != nil {
				return nil, fmt.Errorf("%s: decode name: %w", op, err)
			}
		}
		if phone.Valid {
			p := phone.String
			r.Phone = &p
		}
		r.Status = models.RestaurantStatus(status)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
