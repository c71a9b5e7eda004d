package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/response"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// decide ждёт до wait, пока хранилище сессии не устоится, и возвращает состояние автомата.
// Неустоявшееся хранилище даёт Checking.
func decide(ctx context.Context, c *console.Client, req guard.Requirement, wait time.Duration) guard.State {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	_, _ = c.Store.Await(ctx, session.Settled)
	snap := c.Store.Snapshot()
	if !session.Settled(snap) {
		return guard.Checking
	}
	return c.Guard(req).Observe(snap)
}

// RequireAccess пропускает запрос только в состоянии Granted. При Denied
// перенаправляет на страницу входа требования, при Checking показывает
// страницу проверки с автообновлением.
func RequireAccess(req guard.Requirement, wait time.Duration, pages *views.Renderer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAccess"
			log := log.With(
				slog.String("op", op),
				slog.String("guard", req.Name),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			c, ok := ClientFrom(r.Context())
			if !ok {
				log.Error("console client missing from context")
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			switch decide(r.Context(), c, req, wait) {
			case guard.Granted:
				next.ServeHTTP(w, r)
			case guard.Denied:
				log.Debug("access denied, redirecting", slog.String("login", req.LoginPath))
				http.Redirect(w, r, req.LoginPath, http.StatusSeeOther)
			default:
				w.Header().Set("Refresh", "1")
				if err := pages.Render(w, http.StatusOK, views.Checking, views.NewPage(c, r, "Checking authentication...", nil)); err != nil {
					log.Error("failed to render page", sl.Err(err))
				}
			}
		})
	}
}

// RequireAPIAccess: вариант RequireAccess для JSON API: Denied даёт 401,
// Checking даёт 503 с Retry-After.
func RequireAPIAccess(req guard.Requirement, wait time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAPIAccess"
			log := log.With(
				slog.String("op", op),
				slog.String("guard", req.Name),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			c, ok := ClientFrom(r.Context())
			if !ok {
				log.Error("console client missing from context")
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			switch decide(r.Context(), c, req, wait) {
			case guard.Granted:
				next.ServeHTTP(w, r)
			case guard.Denied:
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
			default:
				w.Header().Set("Retry-After", "1")
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("authentication check in progress"))
			}
		})
	}
}
