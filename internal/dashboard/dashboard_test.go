package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PRECISEKY/food-admin-panel/internal/events"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// memoryBackend: бэкенд в памяти с уникальностью подписки на ресторан.
type memoryBackend struct {
	mu            sync.Mutex
	profiles      map[string]*models.Profile
	restaurants   []models.Restaurant
	subscriptions map[string]models.Subscription
	inserts       int

	profileErr     error
	pendingErr     error
	activatableErr error
	updateErr      error
	insertErr      error
}

func newMemoryBackend(restaurants ...models.Restaurant) *memoryBackend {
	return &memoryBackend{
		profiles:      map[string]*models.Profile{},
		restaurants:   restaurants,
		subscriptions: map[string]models.Subscription{},
	}
}

func (m *memoryBackend) ProfileByID(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (m *memoryBackend) PendingRestaurants(context.Context) ([]models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingErr != nil {
		return nil, m.pendingErr
	}
	var out []models.Restaurant
	for _, r := range m.restaurants {
		if r.Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

// ActivatableRestaurants отдаёт все одобренные рестораны с числом подписок:
// отбор без подписки выполняет контроллер.
func (m *memoryBackend) ActivatableRestaurants(context.Context) ([]models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activatableErr != nil {
		return nil, m.activatableErr
	}
	var out []models.Restaurant
	for _, r := range m.restaurants {
		if r.Status != models.StatusApproved {
			continue
		}
		if _, ok := m.subscriptions[r.ID]; ok {
			r.SubscriptionCount = 1
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryBackend) UpdateRestaurantStatus(_ context.Context, id string, status models.RestaurantStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.restaurants {
		if m.restaurants[i].ID == id {
			m.restaurants[i].Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memoryBackend) InsertSubscription(_ context.Context, sub models.Subscription) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	if _, ok := m.subscriptions[sub.RestaurantID]; ok {
		return "", storage.ErrUniqueViolation
	}
	m.inserts++
	sub.ID = "sub-" + sub.RestaurantID
	m.subscriptions[sub.RestaurantID] = sub
	return sub.ID, nil
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

var base = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func restaurant(id string, status models.RestaurantStatus, createdAt time.Time) models.Restaurant {
	return models.Restaurant{
		ID:        id,
		Name:      models.LocalizedText{"en": "Restaurant " + id, "ar": "مطعم " + id},
		Status:    status,
		CreatedAt: createdAt,
	}
}

func ids(items []models.Restaurant) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.ID)
	}
	return out
}

func newController(repo Repository, pub Publisher) *Controller {
	c := New(repo, pub, newNoopLogger())
	c.now = func() time.Time { return time.Date(2025, 2, 20, 23, 30, 0, 0, time.Local) }
	return c
}

func TestListPending_OrderedOldestFirst(t *testing.T) {
	t1, t2, t3 := base, base.Add(time.Hour), base.Add(2*time.Hour)
	repo := newMemoryBackend(
		restaurant("r2", models.StatusPending, t2),
		restaurant("r1", models.StatusPending, t1),
		restaurant("approved", models.StatusApproved, base.Add(-time.Hour)),
		restaurant("r3", models.StatusPending, t3),
	)
	c := newController(repo, events.NopPublisher{})

	got, err := c.ListPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(got))
	for _, r := range got {
		assert.Equal(t, models.StatusPending, r.Status)
	}
}

func TestListActivatable_ExcludesSubscribed(t *testing.T) {
	repo := newMemoryBackend(
		restaurant("free", models.StatusApproved, base),
		restaurant("taken", models.StatusApproved, base.Add(time.Minute)),
		restaurant("pending", models.StatusPending, base),
	)
	repo.subscriptions["taken"] = models.Subscription{ID: "s1", RestaurantID: "taken"}
	c := newController(repo, events.NopPublisher{})

	got, err := c.ListActivatable(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"free"}, ids(got))
}

func TestLoad_IndependentSections(t *testing.T) {
	repo := newMemoryBackend(
		restaurant("p1", models.StatusPending, base),
		restaurant("a1", models.StatusApproved, base),
	)
	repo.profileErr = errors.New("profile backend down")
	c := newController(repo, events.NopPublisher{})

	view := c.Load(context.Background(), "admin-1")

	assert.Nil(t, view.Profile.Profile)
	assert.Error(t, view.Profile.Err)
	assert.False(t, view.Profile.Loading)

	assert.NoError(t, view.Pending.Err)
	assert.False(t, view.Pending.Loading)
	assert.Equal(t, []string{"p1"}, ids(view.Pending.Items))

	assert.NoError(t, view.Activatable.Err)
	assert.Equal(t, []string{"a1"}, ids(view.Activatable.Items))
}

func TestLoad_ListFailure(t *testing.T) {
	repo := newMemoryBackend(restaurant("a1", models.StatusApproved, base))
	repo.profiles["admin-1"] = &models.Profile{ID: "admin-1", Role: models.RoleAdmin}
	repo.pendingErr = errors.New("timeout")
	c := newController(repo, events.NopPublisher{})

	view := c.Load(context.Background(), "admin-1")

	require.NotNil(t, view.Profile.Profile)
	assert.Error(t, view.Pending.Err)
	assert.False(t, view.Pending.Loading)
	assert.Equal(t, []string{"a1"}, ids(view.Activatable.Items))
}

func TestSetStatus(t *testing.T) {
	t.Run("approve moves restaurant to activatable", func(t *testing.T) {
		repo := newMemoryBackend(
			restaurant("r1", models.StatusPending, base),
			restaurant("r2", models.StatusPending, base.Add(time.Hour)),
		)
		pub := new(PublisherMock)
		pub.On("Publish", mock.Anything, events.RestaurantStatusChanged, mock.MatchedBy(func(e events.StatusChanged) bool {
			return e.RestaurantID == "r1" && e.Status == "approved"
		})).Return(nil).Once()
		c := newController(repo, pub)
		c.Load(context.Background(), "admin-1")

		require.NoError(t, c.SetStatus(context.Background(), "r1", models.StatusApproved))

		view := c.View()
		assert.Equal(t, []string{"r2"}, ids(view.Pending.Items))
		assert.Equal(t, []string{"r1"}, ids(view.Activatable.Items))
		pub.AssertExpectations(t)
	})

	t.Run("reject leaves activatable untouched", func(t *testing.T) {
		repo := newMemoryBackend(restaurant("r1", models.StatusPending, base))
		c := newController(repo, events.NopPublisher{})
		c.Load(context.Background(), "admin-1")

		require.NoError(t, c.SetStatus(context.Background(), "r1", models.StatusRejected))

		view := c.View()
		assert.Empty(t, view.Pending.Items)
		assert.Empty(t, view.Activatable.Items)
	})

	t.Run("invalid status", func(t *testing.T) {
		c := newController(newMemoryBackend(), events.NopPublisher{})
		err := c.SetStatus(context.Background(), "r1", models.StatusPending)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("backend failure keeps state", func(t *testing.T) {
		repo := newMemoryBackend(restaurant("r1", models.StatusPending, base))
		c := newController(repo, events.NopPublisher{})
		c.Load(context.Background(), "admin-1")
		repo.updateErr = errors.New("permission denied")

		err := c.SetStatus(context.Background(), "r1", models.StatusApproved)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, []string{"r1"}, ids(c.View().Pending.Items))
	})

	t.Run("publish failure is not surfaced", func(t *testing.T) {
		repo := newMemoryBackend(restaurant("r1", models.StatusPending, base))
		pub := new(PublisherMock)
		pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
		c := newController(repo, pub)

		assert.NoError(t, c.SetStatus(context.Background(), "r1", models.StatusRejected))
	})
}

func TestActivateTrial(t *testing.T) {
	t.Run("inserts fourteen day trial and removes restaurant", func(t *testing.T) {
		repo := newMemoryBackend(
			restaurant("r1", models.StatusApproved, base),
			restaurant("r2", models.StatusApproved, base.Add(time.Hour)),
		)
		pub := new(PublisherMock)
		pub.On("Publish", mock.Anything, events.TrialActivated, mock.MatchedBy(func(e events.TrialActivatedEvent) bool {
			return e.RestaurantID == "r1" && e.StartDate == "2025-02-20" && e.EndDate == "2025-03-06"
		})).Return(nil).Once()
		c := newController(repo, pub)
		c.Load(context.Background(), "admin-1")

		sub, err := c.ActivateTrial(context.Background(), "r1")

		require.NoError(t, err)
		assert.Equal(t, "sub-r1", sub.ID)
		assert.Equal(t, models.PlanTrial, sub.PlanType)
		assert.Equal(t, models.SubscriptionStatusTrial, sub.Status)
		assert.Equal(t, sub.StartDate.AddDate(0, 0, 14), sub.EndDate)
		assert.Equal(t, 1, repo.inserts)
		assert.Equal(t, []string{"r2"}, ids(c.View().Activatable.Items))
		pub.AssertExpectations(t)
	})

	t.Run("already subscribed refreshes list", func(t *testing.T) {
		repo := newMemoryBackend(restaurant("r1", models.StatusApproved, base))
		c := newController(repo, events.NopPublisher{})
		c.Load(context.Background(), "admin-1")
		repo.subscriptions["r1"] = models.Subscription{ID: "external", RestaurantID: "r1"}

		_, err := c.ActivateTrial(context.Background(), "r1")

		assert.ErrorIs(t, err, ErrAlreadySubscribed)
		assert.Empty(t, c.View().Activatable.Items)
	})

	t.Run("deleted restaurant reports not found and refreshes list", func(t *testing.T) {
		repo := newMemoryBackend(
			restaurant("r1", models.StatusApproved, base),
			restaurant("r2", models.StatusApproved, base.Add(time.Hour)),
		)
		c := newController(repo, events.NopPublisher{})
		c.Load(context.Background(), "admin-1")
		repo.mu.Lock()
		repo.restaurants = repo.restaurants[1:]
		repo.insertErr = fmt.Errorf("storage.InsertSubscription: %w", storage.ErrNotFound)
		repo.mu.Unlock()

		_, err := c.ActivateTrial(context.Background(), "r1")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NotErrorIs(t, err, ErrAlreadySubscribed)
		assert.Equal(t, []string{"r2"}, ids(c.View().Activatable.Items))
	})

	t.Run("generic failure leaves state unchanged", func(t *testing.T) {
		repo := newMemoryBackend(restaurant("r1", models.StatusApproved, base))
		c := newController(repo, events.NopPublisher{})
		c.Load(context.Background(), "admin-1")
		repo.insertErr = errors.New("connection reset")

		_, err := c.ActivateTrial(context.Background(), "r1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAlreadySubscribed)
		assert.Equal(t, []string{"r1"}, ids(c.View().Activatable.Items))
	})
}

func TestActivateTrial_Twice(t *testing.T) {
	repo := newMemoryBackend(restaurant("r1", models.StatusApproved, base))
	c := newController(repo, events.NopPublisher{})
	c.Load(context.Background(), "admin-1")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.ActivateTrial(context.Background(), "r1")
		}()
	}
	wg.Wait()

	var success, already int
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrAlreadySubscribed):
			already++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, already)
	assert.Equal(t, 1, repo.inserts)
	assert.NotContains(t, ids(c.View().Activatable.Items), "r1")
}

func TestReason(t *testing.T) {
	err := fmt.Errorf("dashboard.SetStatus: %w", fmt.Errorf("storage.UpdateRestaurantStatus: %w", storage.ErrNotFound))
	assert.Equal(t, storage.ErrNotFound.Error(), Reason(err))
	assert.Equal(t, "plain", Reason(errors.New("plain")))
}
