package guard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func snap(loading, withSession bool, role models.Role, version uint64) session.Snapshot {
	s := session.Snapshot{Loading: loading, Version: version}
	if withSession {
		s.Session = &models.Session{User: models.UserIdentity{ID: "u1"}}
		s.User = &s.Session.User
	}
	if role != "" {
		s.Profile = &models.Profile{ID: "u1", Role: role}
	}
	return s
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		s    session.Snapshot
		req  Requirement
		want State
	}{
		{name: "loading", s: snap(true, true, models.RoleAdmin, 0), req: Admin, want: Checking},
		{name: "no session", s: snap(false, false, "", 1), req: Admin, want: Denied},
		{name: "session only", s: snap(false, true, "", 1), req: Admin, want: Granted},
		{name: "restaurant without profile", s: snap(false, true, "", 1), req: Restaurant, want: Denied},
		{name: "restaurant wrong role", s: snap(false, true, models.RoleAdmin, 1), req: Restaurant, want: Denied},
		{name: "restaurant granted", s: snap(false, true, models.RoleRestaurant, 1), req: Restaurant, want: Granted},
		{name: "restaurant loading", s: snap(true, false, "", 0), req: Restaurant, want: Checking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.s, tt.req))
		})
	}
}

func TestGuard_NoMemoryOfPriorDecisions(t *testing.T) {
	sequences := [][]session.Snapshot{
		{snap(true, false, "", 0), snap(false, true, models.RoleRestaurant, 1), snap(false, false, "", 2), snap(false, true, models.RoleRestaurant, 3)},
		{snap(true, false, "", 0), snap(false, false, "", 1), snap(false, true, "", 2), snap(false, true, models.RoleAdmin, 3)},
		{snap(false, true, models.RoleRestaurant, 5), snap(false, true, "", 6)},
	}

	for _, seq := range sequences {
		g := New(Restaurant, newNoopLogger())
		for _, s := range seq {
			got := g.Observe(s)
			assert.Equal(t, Evaluate(s, Restaurant), got)
			assert.Equal(t, got, g.State())
		}
	}
}

func TestGuard_IgnoresStaleSnapshot(t *testing.T) {
	g := New(Admin, newNoopLogger())

	assert.Equal(t, Denied, g.Observe(snap(false, false, "", 4)))
	assert.Equal(t, Denied, g.Observe(snap(false, true, "", 3)), "older snapshot must not change state")
	assert.Equal(t, Granted, g.Observe(snap(false, true, "", 5)))
}

type staticAuth struct {
	session *models.Session
}

func (a staticAuth) GetSession(context.Context) (*models.Session, error) { return a.session, nil }

func (a staticAuth) SignInWithPassword(context.Context, string, string) (*models.Session, error) {
	return nil, nil
}

func (a staticAuth) SignOut(context.Context) error { return nil }

func (a staticAuth) OnAuthStateChange(func(models.AuthChange)) func() { return func() {} }

type emptyProfiles struct{}

func (emptyProfiles) ProfileByID(context.Context, string) (*models.Profile, error) {
	return nil, storage.ErrNotFound
}

func TestGuard_Watch(t *testing.T) {
	auth := staticAuth{session: &models.Session{User: models.UserIdentity{ID: "u1"}}}
	store := session.New(auth, session.NewProfileLoader(emptyProfiles{}, newNoopLogger()), newNoopLogger())

	admin := New(Admin, newNoopLogger())
	restaurant := New(Restaurant, newNoopLogger())
	defer admin.Watch(store)()
	defer restaurant.Watch(store)()

	assert.Equal(t, Checking, admin.State())
	assert.Equal(t, "checking", admin.State().String())

	store.Initialize(context.Background())

	assert.Equal(t, Granted, admin.State())
	assert.Equal(t, Denied, restaurant.State())
	assert.Equal(t, "/restaurant/login", restaurant.Requirement().LoginPath)
}
