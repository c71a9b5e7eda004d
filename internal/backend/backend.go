// Package backend: клиент удалённого бэкенда консоли: вход по паролю, получение
// текущей сессии, выход и подписка на смену состояния аутентификации.
//
// Service общий для процесса, AuthClient создаётся на каждого клиента консоли
// (браузер) и хранит его слушателей.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/jwt"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// ErrInvalidCredentials: неверный email или пароль.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// UserFinder ищет учётные записи по email.
type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenMaker выпускает и проверяет токены сессий.
type TokenMaker interface {
	GenerateToken(userID, email string) (string, time.Time, error)
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Feed: поток событий аутентификации одного клиента.
type Feed interface {
	Changes() <-chan models.AuthChange
	Close() error
}

// SessionKeeper хранит сессии клиентов и рассылает события.
type SessionKeeper interface {
	Save(ctx context.Context, clientID string, s models.Session, ttl time.Duration) error
	Load(ctx context.Context, clientID string) (*models.Session, error)
	Delete(ctx context.Context, clientID string) error
	Publish(ctx context.Context, clientID string, change models.AuthChange) error
	Subscribe(ctx context.Context, clientID string) (Feed, error)
}

// Service создаёт AuthClient для клиентов консоли.
type Service struct {
	users         UserFinder
	tokens        TokenMaker
	keeper        SessionKeeper
	refreshBefore time.Duration
	log           *slog.Logger
}

// NewService создаёт Service. refreshBefore, окно до истечения токена,
// в котором GetSession перевыпускает его.
func NewService(users UserFinder, tokens TokenMaker, keeper SessionKeeper, refreshBefore time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		keeper:        keeper,
		refreshBefore: refreshBefore,
		log:           log,
	}
}
