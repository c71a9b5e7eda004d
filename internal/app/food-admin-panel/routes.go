// Package foodadminpanel собирает HTTP-приложение консоли.
package foodadminpanel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/api"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/auth/login"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/auth/logout"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/dashboard/page"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/dashboard/status"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/dashboard/trial"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/health"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/language"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/restaurant/home"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/restaurant/menu"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
)

// Deps: зависимости маршрутов.
type Deps struct {
	Registry middlewarectx.Registry
	Console  config.Console
	Pages    *views.Renderer
	Checks   map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, deps.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.ClientResolver(deps.Registry, deps.Console, logger))

		adminLogin := login.New(logger, deps.Pages, login.Options{
			Requirement: guard.Admin,
			Title:       "Admin Login",
			Target:      "/",
			Wait:        deps.Console.LoginWait,
		})
		restaurantLogin := login.New(logger, deps.Pages, login.Options{
			Requirement: guard.Restaurant,
			Title:       "Restaurant Login",
			Target:      "/restaurant/dashboard",
			Wait:        deps.Console.LoginWait,
		})

		// Открытые страницы
		r.Get("/login", adminLogin.Show)
		r.Post("/login", adminLogin.ServeHTTP)
		r.Get("/restaurant/login", restaurantLogin.Show)
		r.Post("/restaurant/login", restaurantLogin.ServeHTTP)
		r.Post("/logout", logout.New(logger, deps.Console.LoginWait).ServeHTTP)
		r.Post("/language", language.New(logger).ServeHTTP)

		// Панель администратора
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAccess(guard.Admin, deps.Console.GuardWait, deps.Pages, logger))
			r.Get("/", page.New(logger, deps.Pages).ServeHTTP)
			r.Post("/restaurants/{id}/status", status.New(logger).ServeHTTP)
			r.Post("/restaurants/{id}/trial", trial.New(logger).ServeHTTP)
		})

		// Раздел владельца ресторана
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAccess(guard.Restaurant, deps.Console.GuardWait, deps.Pages, logger))
			r.Get("/restaurant", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/restaurant/dashboard", http.StatusSeeOther)
			})
			r.Get("/restaurant/dashboard", home.New(logger, deps.Pages).ServeHTTP)
			r.Get("/restaurant/menu", menu.New(logger, deps.Pages).ServeHTTP)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middlewarectx.RequireAPIAccess(guard.Admin, deps.Console.GuardWait, logger))
			h := api.New(logger)
			r.Get("/me", h.Me)
			r.Get("/restaurants/pending", h.Pending)
			r.Get("/restaurants/activatable", h.Activatable)
			r.Post("/restaurants/{id}/status", h.SetStatus)
			r.Post("/restaurants/{id}/trial", h.ActivateTrial)
		})
	})
}
