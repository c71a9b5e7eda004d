package views

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/console/consoletest"
	"github.com/PRECISEKY/food-admin-panel/internal/dashboard"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

func newClient(t *testing.T, lang locale.Language) *console.Client {
	t.Helper()
	reg := consoletest.NewRegistry(consoletest.NewBackend())
	t.Cleanup(reg.Close)
	c, err := reg.Get(context.Background(), console.NewClientID(), lang)
	require.NoError(t, err)
	return c
}

func TestRender_LayoutAttributes(t *testing.T) {
	r := MustNew()
	c := newClient(t, locale.Arabic)
	c.AddNotice(console.Notice{Error: true, Text: "Failed to update status: boom"})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	page := NewPage(c, req, "Admin Login", LoginForm{Action: "/login"})

	require.NoError(t, r.Render(rec, http.StatusOK, Login, page))

	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `<html lang="ar" dir="rtl">`)
	assert.Contains(t, body, "دخول المشرف")
	assert.Contains(t, body, "Failed to update status: boom")
	assert.Empty(t, c.TakeNotices(), "notices are consumed by the page")
}

func TestRender_Dashboard(t *testing.T) {
	r := MustNew()
	c := newClient(t, locale.English)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	view := dashboard.View{
		Profile: dashboard.ProfileSection{Profile: &models.Profile{ID: "a", Role: models.RoleAdmin, FullName: "Amira"}},
		Pending: dashboard.RestaurantsSection{Items: []models.Restaurant{{
			ID:        "r1",
			Name:      models.LocalizedText{"en": "Falafel House"},
			Status:    models.StatusPending,
			CreatedAt: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
		}}},
	}

	require.NoError(t, r.Render(rec, http.StatusOK, Dashboard, NewPage(c, req, "Dashboard", view)))

	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, Amira")
	assert.Contains(t, body, "Falafel House")
	assert.Contains(t, body, `action="/restaurants/r1/status"`)
	assert.Contains(t, body, "No restaurants to activate.")
}

func TestRender_UnknownPage(t *testing.T) {
	r := MustNew()
	c := newClient(t, locale.English)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := r.Render(httptest.NewRecorder(), http.StatusOK, "missing", NewPage(c, req, "", nil))
	assert.Error(t, err)
}
