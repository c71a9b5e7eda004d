package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/password"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

// AuthClient: сессионный клиент бэкенда для одного клиента консоли.
type AuthClient struct {
	clientID string
	svc      *Service
	feed     Feed
	log      *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(models.AuthChange)
	nextID    int
	done      chan struct{}
}

// Client подписывается на события клиента clientID и возвращает AuthClient.
// События доставляются слушателям последовательно, в порядке публикации.
func (s *Service) Client(ctx context.Context, clientID string) (*AuthClient, error) {
	const op = "backend.Client"
	feed, err := s.keeper.Subscribe(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c := &AuthClient{
		clientID:  clientID,
		svc:       s,
		feed:      feed,
		log:       s.log.With(slog.String("client", clientID)),
		listeners: make(map[int]func(models.AuthChange)),
		done:      make(chan struct{}),
	}
	go c.dispatch()
	return c, nil
}

func (c *AuthClient) dispatch() {
	defer close(c.done)
	for change := range c.feed.Changes() {
		c.mu.Lock()
		fns := make([]func(models.AuthChange), 0, len(c.listeners))
		for id := 0; id < c.nextID; id++ {
			if fn, ok := c.listeners[id]; ok {
				fns = append(fns, fn)
			}
		}
		c.mu.Unlock()

		c.log.Debug("auth state changed", slog.String("event", string(change.Event)))
		for _, fn := range fns {
			fn(change)
		}
	}
}

// OnAuthStateChange регистрирует слушателя смены состояния. Возвращает функцию отписки.
func (c *AuthClient) OnAuthStateChange(fn func(models.AuthChange)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// GetSession возвращает текущую сессию клиента или nil. Недействительный или
// истёкший токен удаляется. Токен, истекающий в пределах окна обновления,
// перевыпускается с рассылкой TOKEN_REFRESHED.
func (c *AuthClient) GetSession(ctx context.Context) (*models.Session, error) {
	const op = "backend.GetSession"

	sess, err := c.svc.keeper.Load(ctx, c.clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess == nil {
		return nil, nil
	}

	claims, err := c.svc.tokens.ParseToken(sess.AccessToken)
	if err != nil || claims.UserID() != sess.User.ID {
		c.log.Info("discarding invalid session", sl.Op(op))
		if err := c.svc.keeper.Delete(ctx, c.clientID); err != nil {
			c.log.Warn("failed to delete invalid session", sl.Op(op), sl.Err(err))
		}
		return nil, nil
	}

	if time.Until(sess.ExpiresAt) > c.svc.refreshBefore {
		return sess, nil
	}
	refreshed, err := c.issue(ctx, sess.User)
	if err != nil {
		c.log.Warn("failed to refresh session", sl.Op(op), sl.Err(err))
		return sess, nil
	}
	c.publish(ctx, models.AuthChange{Event: models.AuthTokenRefreshed, Session: refreshed})
	return refreshed, nil
}

// SignInWithPassword проверяет учётные данные и открывает сессию.
// Неизвестный email и неверный пароль неразличимы для вызывающего: ErrInvalidCredentials.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, pass string) (*models.Session, error) {
	const op = "backend.SignInWithPassword"

	email = strings.TrimSpace(email)
	user, err := c.svc.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := c.issue(ctx, models.UserIdentity{ID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("signed in", slog.String("user_id", user.ID))
	c.publish(ctx, models.AuthChange{Event: models.AuthSignedIn, Session: sess})
	return sess, nil
}

// SignOut завершает сессию клиента.
func (c *AuthClient) SignOut(ctx context.Context) error {
	const op = "backend.SignOut"
	if err := c.svc.keeper.Delete(ctx, c.clientID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.publish(ctx, models.AuthChange{Event: models.AuthSignedOut})
	return nil
}

// Close отменяет подписку на события и дожидается остановки доставки.
func (c *AuthClient) Close() error {
	err := c.feed.Close()
	<-c.done
	return err
}

func (c *AuthClient) issue(ctx context.Context, user models.UserIdentity) (*models.Session, error) {
	token, expires, err := c.svc.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	sess := &models.Session{AccessToken: token, ExpiresAt: expires, User: user}
	if err := c.svc.keeper.Save(ctx, c.clientID, *sess, time.Until(expires)); err != nil {
		return nil, err
	}
	return sess, nil
}

// publish рассылает событие. Ошибка публикации не отменяет уже выполненную операцию.
func (c *AuthClient) publish(ctx context.Context, change models.AuthChange) {
	if err := c.svc.keeper.Publish(ctx, c.clientID, change); err != nil {
		c.log.Error("failed to publish auth event", slog.String("event", string(change.Event)), sl.Err(err))
	}
}
