package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PRECISEKY/food-admin-panel/internal/console/consoletest"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/api"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/handlertest"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/period"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func setup(t *testing.T) (*handlertest.Browser, *consoletest.Backend) {
	t.Helper()
	b := consoletest.NewBackend()
	b.AddUser("admin-1", "admin@example.com", "secret", models.RoleAdmin)
	now := time.Now()
	b.AddRestaurant(models.Restaurant{ID: "r1", Status: models.StatusPending, CreatedAt: now.Add(-time.Hour)})
	b.AddRestaurant(models.Restaurant{ID: "r2", Status: models.StatusPending, CreatedAt: now.Add(-2 * time.Hour)})
	b.AddRestaurant(models.Restaurant{ID: "r3", Status: models.StatusApproved, CreatedAt: now})

	reg := consoletest.NewRegistry(b)
	t.Cleanup(reg.Close)

	h := api.New(consoletest.NoopLogger())
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(middlewarectx.RequireAPIAccess(guard.Admin, time.Second, consoletest.NoopLogger()))
		r.Get("/api/v1/me", h.Me)
		r.Get("/api/v1/restaurants/pending", h.Pending)
		r.Get("/api/v1/restaurants/activatable", h.Activatable)
		r.Post("/api/v1/restaurants/{id}/status", h.SetStatus)
		r.Post("/api/v1/restaurants/{id}/trial", h.ActivateTrial)
	})
	return handlertest.NewBrowser(t, reg, router), b
}

func postJSON(b *handlertest.Browser, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.Do(req)
}

func TestAPI_RequiresSession(t *testing.T) {
	browser, _ := setup(t)
	browser.Settle(func(s session.Snapshot) bool { return !s.HasSession() })

	rec := browser.Get("/api/v1/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Error", decode(t, rec).Status)
}

func TestAPI_Me(t *testing.T) {
	browser, _ := setup(t)
	browser.SignIn("admin@example.com", "secret")

	rec := browser.Get("/api/v1/me")
	require.Equal(t, http.StatusOK, rec.Code)
	var me api.MeResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	require.NotNil(t, me.User)
	assert.Equal(t, "admin@example.com", me.User.Email)
	require.NotNil(t, me.Profile)
	assert.Equal(t, models.RoleAdmin, me.Profile.Role)
	assert.Equal(t, guard.Granted.String(), me.Admin)
	assert.Equal(t, guard.Denied.String(), me.Restaurant)
}

func TestAPI_Lists(t *testing.T) {
	browser, _ := setup(t)
	browser.SignIn("admin@example.com", "secret")

	rec := browser.Get("/api/v1/restaurants/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.Restaurant
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pending))
	require.Len(t, pending, 2)
	assert.Equal(t, "r2", pending[0].ID)
	assert.Equal(t, "r1", pending[1].ID)

	rec = browser.Get("/api/v1/restaurants/activatable")
	require.Equal(t, http.StatusOK, rec.Code)
	var activatable []models.Restaurant
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &activatable))
	require.Len(t, activatable, 1)
	assert.Equal(t, "r3", activatable[0].ID)
}

func TestAPI_SetStatus(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		body      string
		updateErr error
		wantCode  int
		wantErr   string
		want      models.RestaurantStatus
	}{
		{name: "approve", id: "r1", body: `{"status":"approved"}`, wantCode: http.StatusOK, want: models.StatusApproved},
		{name: "reject", id: "r2", body: `{"status":"rejected"}`, wantCode: http.StatusOK, want: models.StatusRejected},
		{name: "bad json", id: "r1", body: `{`, wantCode: http.StatusBadRequest, wantErr: "invalid request body", want: models.StatusPending},
		{name: "missing status", id: "r1", body: `{}`, wantCode: http.StatusUnprocessableEntity, wantErr: "field Status is a required field", want: models.StatusPending},
		{name: "pending not allowed", id: "r1", body: `{"status":"pending"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "field Status must be one of: approved rejected", want: models.StatusPending},
		{name: "unknown restaurant", id: "nope", body: `{"status":"approved"}`, wantCode: http.StatusNotFound, wantErr: "restaurant not found"},
		{name: "backend failure", id: "r1", body: `{"status":"approved"}`, updateErr: errors.New("permission denied"), wantCode: http.StatusBadGateway, wantErr: "permission denied", want: models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser, b := setup(t)
			b.UpdateErr = tt.updateErr
			browser.SignIn("admin@example.com", "secret")

			rec := postJSON(browser, "/api/v1/restaurants/"+tt.id+"/status", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tt.wantErr, env.Error)
			assert.Equal(t, tt.want, b.RestaurantStatus(tt.id))
		})
	}
}

func TestAPI_ActivateTrial(t *testing.T) {
	browser, b := setup(t)
	browser.SignIn("admin@example.com", "secret")

	rec := postJSON(browser, "/api/v1/restaurants/r3/trial", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub models.Subscription
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sub))
	assert.Equal(t, "r3", sub.RestaurantID)
	assert.Equal(t, models.PlanTrial, sub.PlanType)
	assert.Equal(t, models.TrialDays, period.DaysBetween(sub.StartDate, sub.EndDate))

	rec = postJSON(browser, "/api/v1/restaurants/r3/trial", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "restaurant already has a subscription", decode(t, rec).Error)
	assert.Equal(t, 1, b.Subscriptions())

	rec = postJSON(browser, "/api/v1/restaurants/missing/trial", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "restaurant not found", decode(t, rec).Error)
	assert.Equal(t, 1, b.Subscriptions())

	b.InsertErr = errors.New("connection reset")
	rec = postJSON(browser, "/api/v1/restaurants/r1/trial", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "connection reset", decode(t, rec).Error)
}
