package repository

import (
	"context"
	"database/sql"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// ProfileByID возвращает ровно один профиль по идентификатору пользователя.
func (s *Storage) ProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage.ProfileByID"

	query := `SELECT id::text, role, full_name, email FROM profiles WHERE id = $1`
	var (
		p        models.Profile
		role     string
		fullName sql.NullString
		email    sql.NullString
	)
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &role, &fullName, &email); err != nil {
		return nil, mapError(op, err)
	}
	p.Role = models.Role(role)
	p.FullName = fullName.String
	p.Email = email.String
	return &p, nil
}
