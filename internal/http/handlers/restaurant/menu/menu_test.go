package menu_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/PRECISEKY/food-admin-panel/internal/console/consoletest"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/handlertest"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/language"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/restaurant/home"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/restaurant/menu"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

func TestMenuAndHome(t *testing.T) {
	b := consoletest.NewBackend()
	b.AddUser("owner-1", "owner@example.com", "secret", models.RoleRestaurant)
	reg := consoletest.NewRegistry(b)
	defer reg.Close()

	pages := views.MustNew()
	router := chi.NewRouter()
	router.Get("/restaurant/dashboard", home.New(consoletest.NoopLogger(), pages).ServeHTTP)
	router.Get("/restaurant/menu", menu.New(consoletest.NoopLogger(), pages).ServeHTTP)
	router.Post("/language", language.New(consoletest.NoopLogger()).ServeHTTP)

	browser := handlertest.NewBrowser(t, reg, router)
	browser.SignIn("owner@example.com", "secret")

	rec := browser.Get("/restaurant/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, User owner-1")
	assert.Contains(t, rec.Body.String(), `href="/restaurant/menu"`)

	rec = browser.Get("/restaurant/menu?q=pizza")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Margherita Pizza")
	assert.NotContains(t, body, "Tiramisu")
	assert.Contains(t, body, "$14.99")
	assert.Contains(t, body, "3 items")

	browser.PostForm("/language", url.Values{"lang": {"ar"}, "return": {"/restaurant/menu"}})
	rec = browser.Get("/restaurant/menu?q=" + url.QueryEscape("بيتزا"))
	body = rec.Body.String()
	assert.Contains(t, body, `dir="rtl"`)
	assert.Contains(t, body, "بيتزا مارجريتا")
}
