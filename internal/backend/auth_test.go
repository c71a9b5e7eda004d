package backend_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PRECISEKY/food-admin-panel/internal/authstate"
	"github.com/PRECISEKY/food-admin-panel/internal/backend"
	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/jwt"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/password"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

type UserFinderMock struct {
	mock.Mock
}

func (m *UserFinderMock) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fixture struct {
	mr     *miniredis.Miniredis
	keeper *authstate.Keeper
	users  *UserFinderMock
	svc    *backend.Service
	hash   string
}

func setup(t *testing.T, ttl, refreshBefore time.Duration) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	keeper, err := authstate.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()}, newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = keeper.Close() })

	hash, err := password.GetHash("secret-pass")
	require.NoError(t, err)

	users := new(UserFinderMock)
	svc := backend.NewService(users, jwt.NewJWTMaker("test-secret", ttl), backend.RedisKeeper{Keeper: keeper}, refreshBefore, newNoopLogger())
	return &fixture{mr: mr, keeper: keeper, users: users, svc: svc, hash: hash}
}

// recorder собирает события, доставленные слушателю.
type recorder struct {
	mu      sync.Mutex
	changes []models.AuthChange
}

func (r *recorder) add(c models.AuthChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) events() []models.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuthEvent, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Event)
	}
	return out
}

func TestSignInWithPassword(t *testing.T) {
	f := setup(t, time.Hour, time.Minute)
	user := &models.User{ID: "u-1", Email: "owner@example.com", PasswordHash: f.hash}

	tests := []struct {
		name     string
		email    string
		password string
		found    *models.User
		findErr  error
		wantErr  error
	}{
		{name: "valid credentials", email: "owner@example.com", password: "secret-pass", found: user},
		{name: "wrong password", email: "owner@example.com", password: "nope", found: user, wantErr: backend.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "secret-pass", findErr: storage.ErrNotFound, wantErr: backend.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.users.ExpectedCalls = nil
			f.users.Calls = nil
			f.users.On("UserByEmail", mock.Anything, tt.email).Return(tt.found, tt.findErr).Once()

			client, err := f.svc.Client(context.Background(), "client-"+tt.name)
			require.NoError(t, err)
			defer client.Close()

			sess, err := client.SignInWithPassword(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				got, err := client.GetSession(context.Background())
				require.NoError(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", sess.User.ID)
			assert.Equal(t, "owner@example.com", sess.User.Email)

			got, err := client.GetSession(context.Background())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, sess.AccessToken, got.AccessToken)
			f.users.AssertExpectations(t)
		})
	}
}

func TestAuthStateChange_PushedAsynchronously(t *testing.T) {
	f := setup(t, time.Hour, time.Minute)
	f.users.On("UserByEmail", mock.Anything, "owner@example.com").
		Return(&models.User{ID: "u-1", Email: "owner@example.com", PasswordHash: f.hash}, nil)

	client, err := f.svc.Client(context.Background(), "client-1")
	require.NoError(t, err)
	defer client.Close()

	rec := &recorder{}
	unsubscribe := client.OnAuthStateChange(rec.add)

	_, err = client.SignInWithPassword(context.Background(), "owner@example.com", "secret-pass")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(context.Background()))

	require.Eventually(t, func() bool { return len(rec.events()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []models.AuthEvent{models.AuthSignedIn, models.AuthSignedOut}, rec.events())

	sess, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)

	unsubscribe()
	_, err = client.SignInWithPassword(context.Background(), "owner@example.com", "secret-pass")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.events(), 2, "unsubscribed listener must not be called")
}

func TestGetSession_RefreshesNearExpiry(t *testing.T) {
	f := setup(t, time.Minute, 2*time.Minute)
	f.users.On("UserByEmail", mock.Anything, "owner@example.com").
		Return(&models.User{ID: "u-1", Email: "owner@example.com", PasswordHash: f.hash}, nil)

	client, err := f.svc.Client(context.Background(), "client-1")
	require.NoError(t, err)
	defer client.Close()

	rec := &recorder{}
	client.OnAuthStateChange(rec.add)

	_, err = client.SignInWithPassword(context.Background(), "owner@example.com", "secret-pass")
	require.NoError(t, err)

	got, err := client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Eventually(t, func() bool {
		ev := rec.events()
		return len(ev) == 2 && ev[1] == models.AuthTokenRefreshed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetSession_DiscardsForgedToken(t *testing.T) {
	f := setup(t, time.Hour, time.Minute)
	ctx := context.Background()

	forged, _, err := jwt.NewJWTMaker("other-secret", time.Hour).GenerateToken("u-1", "owner@example.com")
	require.NoError(t, err)
	require.NoError(t, f.keeper.Save(ctx, "client-1", models.Session{
		AccessToken: forged,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        models.UserIdentity{ID: "u-1"},
	}, time.Hour))

	client, err := f.svc.Client(ctx, "client-1")
	require.NoError(t, err)
	defer client.Close()

	sess, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.False(t, f.mr.Exists("auth:session:client-1"))
}

func TestGetSession_BackendError(t *testing.T) {
	f := setup(t, time.Hour, time.Minute)
	client, err := f.svc.Client(context.Background(), "client-1")
	require.NoError(t, err)
	defer client.Close()

	f.mr.SetError("connection lost")
	defer f.mr.SetError("")

	_, err = client.GetSession(context.Background())
	assert.Error(t, err)
}
