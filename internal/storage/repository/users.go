package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// UserByEmail возвращает учётную запись по email (без учёта регистра).
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.UserByEmail"

	query := `SELECT id::text, email, password_hash, created_at
			  FROM users WHERE lower(email) = $1`
	var u models.User
	err := s.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &u, nil
}

// CreateUser заводит учётную запись вместе с профилем в одной транзакции.
// В консоли не вызывается: аккаунты создаются при подключении ресторана
// и администраторов, функция нужна для провижининга и тестов.
func (s *Storage) CreateUser(ctx context.Context, email, passwordHash string, profile models.Profile) (string, error) {
	const op = "storage.CreateUser"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertUser(ctx, tx, email, passwordHash, profile)
	if err != nil {
		return "", mapError(op, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// CreateOwner заводит учётную запись, профиль и ресторан владельца в одной
// транзакции. При ошибке на любом шаге в базе ничего не остаётся.
func (s *Storage) CreateOwner(ctx context.Context, email, passwordHash string, profile models.Profile, r models.Restaurant) (userID, restaurantID string, err error) {
	const op = "storage.CreateOwner"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	userID, err = insertUser(ctx, tx, email, passwordHash, profile)
	if err != nil {
		return "", "", mapError(op, err)
	}
	r.ProfileID = userID
	restaurantID, err = insertRestaurant(ctx, tx, r)
	if err != nil {
		return "", "", mapError(op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return userID, restaurantID, nil
}

func insertUser(ctx context.Context, q queryer, email, passwordHash string, profile models.Profile) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id::text`,
		strings.ToLower(strings.TrimSpace(email)), passwordHash).Scan(&id)
	if err != nil {
		return "", err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO profiles (id, role, full_name, email) VALUES ($1, $2, NULLIF($3, ''), $4)`,
		id, string(profile.Role), profile.FullName, email)
	if err != nil {
		return "", err
	}
	return id, nil
}
