// Package dashboard реализует процесс одобрения ресторанов: списки заявок и
// ресторанов без подписки, смену статуса и активацию пробной подписки.
//
// Каждый метод обращается к бэкенду напрямую и после успеха обновляет
// локальные списки. Автоматических повторов нет.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/PRECISEKY/food-admin-panel/internal/events"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/period"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/metrics"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

var (
	// ErrAlreadySubscribed: у ресторана уже есть подписка.
	ErrAlreadySubscribed = errors.New("restaurant already has a subscription")
	// ErrInvalidStatus: недопустимый целевой статус.
	ErrInvalidStatus = errors.New("status must be approved or rejected")
)

// Repository: табличные операции бэкенда, нужные панели.
type Repository interface {
	ProfileByID(ctx context.Context, id string) (*models.Profile, error)
	PendingRestaurants(ctx context.Context) ([]models.Restaurant, error)
	ActivatableRestaurants(ctx context.Context) ([]models.Restaurant, error)
	UpdateRestaurantStatus(ctx context.Context, id string, status models.RestaurantStatus) error
	InsertSubscription(ctx context.Context, sub models.Subscription) (string, error)
}

// Publisher отправляет доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ProfileSection: профиль текущего пользователя с флагами загрузки.
type ProfileSection struct {
	Profile *models.Profile
	Loading bool
	Err     error
}

// RestaurantsSection: список ресторанов с флагами загрузки.
type RestaurantsSection struct {
	Items   []models.Restaurant
	Loading bool
	Err     error
}

// View: состояние панели для отрисовки.
type View struct {
	Profile     ProfileSection
	Pending     RestaurantsSection
	Activatable RestaurantsSection
}

// Controller: панель одного клиента консоли.
type Controller struct {
	repo Repository
	pub  Publisher
	log  *slog.Logger
	now  func() time.Time

	mu          sync.Mutex
	profile     ProfileSection
	pending     RestaurantsSection
	activatable RestaurantsSection
}

// New создаёт контроллер. Время берётся из локальных часов.
func New(repo Repository, pub Publisher, log *slog.Logger) *Controller {
	return &Controller{
		repo: repo,
		pub:  pub,
		log:  log,
		now:  time.Now,
	}
}

// View возвращает копию текущего состояния.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Profile:     c.profile,
		Pending:     copySection(c.pending),
		Activatable: copySection(c.activatable),
	}
}

func copySection(s RestaurantsSection) RestaurantsSection {
	s.Items = slices.Clone(s.Items)
	return s
}

// Load параллельно загружает профиль, заявки и рестораны без подписки.
// Ошибка одной загрузки не мешает остальным.
func (c *Controller) Load(ctx context.Context, userID string) View {
	c.mu.Lock()
	c.profile.Loading = true
	c.pending.Loading = true
	c.activatable.Loading = true
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		c.loadProfile(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		_, _ = c.ListPending(ctx)
	}()
	go func() {
		defer wg.Done()
		_, _ = c.ListActivatable(ctx)
	}()
	wg.Wait()

	return c.View()
}

func (c *Controller) loadProfile(ctx context.Context, userID string) {
	const op = "dashboard.loadProfile"

	profile, err := c.repo.ProfileByID(ctx, userID)
	if err != nil {
		c.log.Error("failed to load profile", sl.Op(op), sl.Err(err))
		profile = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = ProfileSection{Profile: profile, Err: err}
}

// ListPending возвращает заявки со статусом pending, старые первыми.
func (c *Controller) ListPending(ctx context.Context) ([]models.Restaurant, error) {
	const op = "dashboard.ListPending"

	items, err := c.repo.PendingRestaurants(ctx)
	if err != nil {
		c.log.Error("failed to list pending restaurants", sl.Op(op), sl.Err(err))
		c.mu.Lock()
		c.pending.Loading = false
		c.pending.Err = err
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items = slices.DeleteFunc(items, func(r models.Restaurant) bool {
		return r.Status != models.StatusPending
	})
	slices.SortStableFunc(items, func(a, b models.Restaurant) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	c.mu.Lock()
	c.pending = RestaurantsSection{Items: items}
	c.mu.Unlock()
	return slices.Clone(items), nil
}

// ListActivatable возвращает одобренные рестораны без подписки.
func (c *Controller) ListActivatable(ctx context.Context) ([]models.Restaurant, error) {
	const op = "dashboard.ListActivatable"

	items, err := c.repo.ActivatableRestaurants(ctx)
	if err != nil {
		c.log.Error("failed to list activatable restaurants", sl.Op(op), sl.Err(err))
		c.mu.Lock()
		c.activatable.Loading = false
		c.activatable.Err = err
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items = slices.DeleteFunc(items, func(r models.Restaurant) bool {
		return !r.Activatable()
	})

	c.mu.Lock()
	c.activatable = RestaurantsSection{Items: items}
	c.mu.Unlock()
	return slices.Clone(items), nil
}

// SetStatus одобряет или отклоняет ресторан. После успеха перезапрашивает
// заявки, а при одобрении ещё и рестораны без подписки.
func (c *Controller) SetStatus(ctx context.Context, restaurantID string, status models.RestaurantStatus) error {
	const op = "dashboard.SetStatus"
	log := c.log.With(sl.Op(op), slog.String("restaurant_id", restaurantID), slog.String("status", string(status)))

	if status != models.StatusApproved && status != models.StatusRejected {
		return fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}

	if err := c.repo.UpdateRestaurantStatus(ctx, restaurantID, status); err != nil {
		log.Error("failed to update restaurant status", sl.Err(err))
		metrics.Mutations.WithLabelValues("set_status", metrics.OutcomeFailure).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.Mutations.WithLabelValues("set_status", metrics.OutcomeSuccess).Inc()
	log.Info("restaurant status updated")

	c.publish(ctx, events.RestaurantStatusChanged, events.StatusChanged{
		RestaurantID: restaurantID,
		Status:       string(status),
		At:           c.now().UTC(),
	})

	_, _ = c.ListPending(ctx)
	if status == models.StatusApproved {
		_, _ = c.ListActivatable(ctx)
	}
	return nil
}

// ActivateTrial создаёт пробную подписку на models.TrialDays календарных дней
// с сегодняшнего дня. Если подписка уже есть, возвращает ErrAlreadySubscribed и
// перезапрашивает рестораны без подписки. После успеха ресторан сразу убирается
// из локального списка.
func (c *Controller) ActivateTrial(ctx context.Context, restaurantID string) (models.Subscription, error) {
	const op = "dashboard.ActivateTrial"
	log := c.log.With(sl.Op(op), slog.String("restaurant_id", restaurantID))

	start, end := period.Window(c.now(), models.TrialDays)
	sub := models.Subscription{
		RestaurantID: restaurantID,
		PlanType:     models.PlanTrial,
		StartDate:    start,
		EndDate:      end,
		Status:       models.SubscriptionStatusTrial,
	}

	id, err := c.repo.InsertSubscription(ctx, sub)
	if errors.Is(err, storage.ErrUniqueViolation) {
		log.Info("restaurant already subscribed")
		metrics.Mutations.WithLabelValues("activate_trial", metrics.OutcomeAlreadySubscribed).Inc()
		_, _ = c.ListActivatable(ctx)
		return models.Subscription{}, fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	}
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("restaurant does not exist")
		metrics.Mutations.WithLabelValues("activate_trial", metrics.OutcomeNotFound).Inc()
		_, _ = c.ListActivatable(ctx)
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		log.Error("failed to activate trial", sl.Err(err))
		metrics.Mutations.WithLabelValues("activate_trial", metrics.OutcomeFailure).Inc()
		return models.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id
	metrics.Mutations.WithLabelValues("activate_trial", metrics.OutcomeSuccess).Inc()
	log.Info("trial activated", slog.String("subscription_id", id))

	c.mu.Lock()
	c.activatable.Items = slices.DeleteFunc(c.activatable.Items, func(r models.Restaurant) bool {
		return r.ID == restaurantID
	})
	c.mu.Unlock()

	c.publish(ctx, events.TrialActivated, events.TrialActivatedEvent{
		RestaurantID:   restaurantID,
		SubscriptionID: id,
		StartDate:      start.Format(time.DateOnly),
		EndDate:        end.Format(time.DateOnly),
	})
	return sub, nil
}

func (c *Controller) publish(ctx context.Context, routingKey string, payload any) {
	if c.pub == nil {
		return
	}
	if err := c.pub.Publish(ctx, routingKey, payload); err != nil {
		c.log.Warn("event not published", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

// Reason возвращает текст исходной ошибки без префиксов операций.
func Reason(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
