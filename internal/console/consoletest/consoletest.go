// Package consoletest: бэкенд в памяти для тестов HTTP-слоя консоли.
package consoletest

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/PRECISEKY/food-admin-panel/internal/backend"
	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/events"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

// NoopLogger возвращает логгер, который ничего не пишет.
func NoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type account struct {
	id       string
	password string
}

// Backend: пользователи, профили, рестораны и подписки в памяти.
type Backend struct {
	mu            sync.Mutex
	accounts      map[string]account
	profiles      map[string]*models.Profile
	restaurants   []models.Restaurant
	subscriptions map[string]models.Subscription

	UpdateErr error
	InsertErr error
}

// NewBackend создаёт пустой бэкенд.
func NewBackend() *Backend {
	return &Backend{
		accounts:      map[string]account{},
		profiles:      map[string]*models.Profile{},
		subscriptions: map[string]models.Subscription{},
	}
}

// AddUser регистрирует пользователя. Профиль с пустой ролью не создаётся.
func (b *Backend) AddUser(id, email, password string, role models.Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var p *models.Profile
	if role != "" {
		p = &models.Profile{ID: id, Role: role, FullName: "User " + id, Email: email}
		b.profiles[id] = p
	}
	b.accounts[email] = account{id: id, password: password}
}

// AddRestaurant добавляет ресторан.
func (b *Backend) AddRestaurant(r models.Restaurant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restaurants = append(b.restaurants, r)
}

// AddSubscription привязывает подписку к ресторану.
func (b *Backend) AddSubscription(sub models.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[sub.RestaurantID] = sub
}

// Subscriptions возвращает число подписок.
func (b *Backend) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscriptions)
}

// RestaurantStatus возвращает статус ресторана.
func (b *Backend) RestaurantStatus(id string) models.RestaurantStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.restaurants {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

func (b *Backend) ProfileByID(_ context.Context, id string) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (b *Backend) PendingRestaurants(context.Context) ([]models.Restaurant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Restaurant
	for _, r := range b.restaurants {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *Backend) ActivatableRestaurants(context.Context) ([]models.Restaurant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Restaurant
	for _, r := range b.restaurants {
		if _, ok := b.subscriptions[r.ID]; ok || r.Status != models.StatusApproved {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Backend) UpdateRestaurantStatus(_ context.Context, id string, status models.RestaurantStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UpdateErr != nil {
		return b.UpdateErr
	}
	for i := range b.restaurants {
		if b.restaurants[i].ID == id {
			b.restaurants[i].Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (b *Backend) InsertSubscription(_ context.Context, sub models.Subscription) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.InsertErr != nil {
		return "", b.InsertErr
	}
	if !slices.ContainsFunc(b.restaurants, func(r models.Restaurant) bool { return r.ID == sub.RestaurantID }) {
		return "", storage.ErrNotFound
	}
	if _, ok := b.subscriptions[sub.RestaurantID]; ok {
		return "", storage.ErrUniqueViolation
	}
	sub.ID = "sub-" + sub.RestaurantID
	b.subscriptions[sub.RestaurantID] = sub
	return sub.ID, nil
}

// Connect открывает клиента аутентификации для клиента консоли.
func (b *Backend) Connect(context.Context, string) (console.AuthClient, error) {
	a := &Auth{
		backend:   b,
		listeners: map[int]func(models.AuthChange){},
		queue:     make(chan models.AuthChange, 16),
		done:      make(chan struct{}),
	}
	go a.dispatch()
	return a, nil
}

// Auth: клиент аутентификации поверх Backend. События доставляются
// асинхронно, в порядке отправки.
type Auth struct {
	backend *Backend
	queue   chan models.AuthChange
	done    chan struct{}
	once    sync.Once

	mu        sync.Mutex
	session   *models.Session
	listeners map[int]func(models.AuthChange)
	next      int
}

func (a *Auth) dispatch() {
	defer close(a.done)
	for change := range a.queue {
		a.mu.Lock()
		fns := make([]func(models.AuthChange), 0, len(a.listeners))
		for id := 0; id < a.next; id++ {
			if fn, ok := a.listeners[id]; ok {
				fns = append(fns, fn)
			}
		}
		a.mu.Unlock()
		for _, fn := range fns {
			fn(change)
		}
	}
}

func (a *Auth) GetSession(context.Context) (*models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session, nil
}

func (a *Auth) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	a.backend.mu.Lock()
	acc, ok := a.backend.accounts[email]
	a.backend.mu.Unlock()
	if !ok || acc.password != password {
		return nil, backend.ErrInvalidCredentials
	}
	s := &models.Session{
		AccessToken: "token-" + acc.id,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        models.UserIdentity{ID: acc.id, Email: email},
	}
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	a.emit(models.AuthChange{Event: models.AuthSignedIn, Session: s})
	return s, nil
}

func (a *Auth) SignOut(context.Context) error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.emit(models.AuthChange{Event: models.AuthSignedOut})
	return nil
}

func (a *Auth) OnAuthStateChange(fn func(models.AuthChange)) func() {
	a.mu.Lock()
	id := a.next
	a.next++
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Auth) emit(change models.AuthChange) {
	a.queue <- change
}

func (a *Auth) Close() error {
	a.once.Do(func() { close(a.queue) })
	<-a.done
	return nil
}

// NewRegistry создаёт реестр клиентов поверх b.
func NewRegistry(b *Backend) *console.Registry {
	return console.NewRegistry(console.Options{
		Connect:         b.Connect,
		Profiles:        b,
		Repository:      b,
		Publisher:       events.NopPublisher{},
		DefaultLanguage: locale.English,
		IdleTTL:         time.Hour,
	}, NoopLogger())
}
