package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

// ProfileRepository читает профили из бэкенда.
type ProfileRepository interface {
	ProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

// ProfileLoader загружает профиль (роль, имя) для идентичности пользователя.
type ProfileLoader struct {
	repo ProfileRepository
	log  *slog.Logger
}

// NewProfileLoader создаёт ProfileLoader.
func NewProfileLoader(repo ProfileRepository, log *slog.Logger) *ProfileLoader {
	return &ProfileLoader{repo: repo, log: log}
}

// Load возвращает профиль пользователя userID либо nil. Ошибки бэкенда
// и отсутствие профиля только логируются. Профиль с чужим id отбрасывается.
func (l *ProfileLoader) Load(ctx context.Context, userID string) *models.Profile {
	const op = "session.ProfileLoader.Load"
	log := l.log.With(sl.Op(op), slog.String("user_id", userID))

	p, err := l.repo.ProfileByID(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Warn("profile not found")
		return nil
	case err != nil:
		log.Error("failed to fetch profile", sl.Err(err))
		return nil
	case p == nil:
		return nil
	case p.ID != userID:
		log.Error("backend returned profile of another user", slog.String("profile_id", p.ID))
		return nil
	}
	return p
}
