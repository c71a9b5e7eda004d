// Package authstate хранит сессии бэкенда в redis и доставляет уведомления
// о смене состояния аутентификации через redis pub/sub.
//
// Сессия клиента консоли лежит под ключом auth:session:<client>, события
// публикуются в канал auth:events:<client>. На процесс приходится одна
// подписка PSUBSCRIBE auth:events:*, события раздаются клиентам по имени канала.
package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

const (
	sessionKeyPrefix = "auth:session:"
	eventsChanPrefix = "auth:events:"
)

// Keeper: хранилище сессий и шина событий аутентификации.
type Keeper struct {
	Db  *redis.Client
	log *slog.Logger

	psMu sync.Mutex
	ps   *redis.PubSub

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection, log *slog.Logger) (*Keeper, error) {
	const op = "authstate.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Keeper{Db: db, log: log, subs: make(map[string]map[*Subscription]struct{})}, nil
}

// Save сохраняет сессию клиента на время ttl.
func (k *Keeper) Save(ctx context.Context, clientID string, s models.Session, ttl time.Duration) error {
	const op = "authstate.Save"
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := k.Db.Set(ctx, sessionKeyPrefix+clientID, data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Load возвращает сохранённую сессию клиента или nil, если её нет.
func (k *Keeper) Load(ctx context.Context, clientID string) (*models.Session, error) {
	const op = "authstate.Load"
	val, err := k.Db.Get(ctx, sessionKeyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var s models.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}

// Delete удаляет сессию клиента.
func (k *Keeper) Delete(ctx context.Context, clientID string) error {
	const op = "authstate.Delete"
	if err := k.Db.Del(ctx, sessionKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publish рассылает событие смены состояния подписчикам клиента.
func (k *Keeper) Publish(ctx context.Context, clientID string, change models.AuthChange) error {
	const op = "authstate.Publish"
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := k.Db.Publish(ctx, eventsChanPrefix+clientID, data).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscription: подписка на события одного клиента. Redis-соединения не держит:
// события приходят из общей подписки Keeper.
type Subscription struct {
	keeper   *Keeper
	clientID string
	changes  chan models.AuthChange

	mu     sync.Mutex
	queue  []models.AuthChange
	notify chan struct{}
	closed chan struct{}
	once   sync.Once
}

// Subscribe подписывается на события клиента. Общая подписка на канал
// auth:events:* подтверждается сервером до возврата, поэтому события,
// опубликованные позже, не теряются.
func (k *Keeper) Subscribe(ctx context.Context, clientID string) (*Subscription, error) {
	const op = "authstate.Subscribe"
	if err := k.listen(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := &Subscription{
		keeper:   k,
		clientID: clientID,
		changes:  make(chan models.AuthChange),
		notify:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	k.mu.Lock()
	if k.subs[clientID] == nil {
		k.subs[clientID] = make(map[*Subscription]struct{})
	}
	k.subs[clientID][sub] = struct{}{}
	k.mu.Unlock()

	go sub.pump()
	return sub, nil
}

// listen один раз на процесс открывает PSUBSCRIBE auth:events:*.
func (k *Keeper) listen(ctx context.Context) error {
	k.psMu.Lock()
	defer k.psMu.Unlock()
	if k.ps != nil {
		return nil
	}
	ps := k.Db.PSubscribe(ctx, eventsChanPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}
	k.ps = ps
	go k.route(ps.Channel())
	return nil
}

// route раскладывает события по подпискам по имени канала.
func (k *Keeper) route(msgs <-chan *redis.Message) {
	for msg := range msgs {
		clientID := strings.TrimPrefix(msg.Channel, eventsChanPrefix)
		var change models.AuthChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			k.log.Warn("dropping malformed auth event", slog.String("client", clientID), sl.Err(err))
			continue
		}

		k.mu.Lock()
		targets := make([]*Subscription, 0, len(k.subs[clientID]))
		for sub := range k.subs[clientID] {
			targets = append(targets, sub)
		}
		k.mu.Unlock()

		for _, sub := range targets {
			sub.push(change)
		}
	}
}

// Subscribers возвращает число активных подписок.
func (k *Keeper) Subscribers() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, set := range k.subs {
		n += len(set)
	}
	return n
}

// Close закрывает общую подписку и соединения с redis.
func (k *Keeper) Close() error {
	k.psMu.Lock()
	if k.ps != nil {
		_ = k.ps.Close()
		k.ps = nil
	}
	k.psMu.Unlock()
	return k.Db.Close()
}

// push ставит событие в очередь подписки, не блокируя общую доставку.
func (s *Subscription) push(change models.AuthChange) {
	s.mu.Lock()
	s.queue = append(s.queue, change)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.changes)
	for {
		select {
		case <-s.closed:
			return
		case <-s.notify:
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			change := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.changes <- change:
			case <-s.closed:
				return
			}
		}
	}
}

// Changes возвращает канал событий. Канал закрывается после Close.
func (s *Subscription) Changes() <-chan models.AuthChange {
	return s.changes
}

// Close отменяет подписку.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		k := s.keeper
		k.mu.Lock()
		delete(k.subs[s.clientID], s)
		if len(k.subs[s.clientID]) == 0 {
			delete(k.subs, s.clientID)
		}
		k.mu.Unlock()
		close(s.closed)
	})
	return nil
}
