// Package page отрисовывает панель администратора: профиль, заявки ресторанов
// и рестораны, которым можно активировать пробную подписку.
package page

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

// Handler обрабатывает GET /.
type Handler struct {
	log   *slog.Logger
	pages *views.Renderer
}

// New создаёт обработчик панели.
func New(log *slog.Logger, pages *views.Renderer) *Handler {
	return &Handler{log: log, pages: pages}
}

// ServeHTTP заново загружает все три раздела панели и отрисовывает страницу.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.page"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	snap := c.Store.Snapshot()
	if snap.User == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	view := c.Dashboard.Load(r.Context(), snap.User.ID)

	if err := h.pages.Render(w, http.StatusOK, views.Dashboard, views.NewPage(c, r, "Dashboard", view)); err != nil {
		log.Error("failed to render page", sl.Err(err))
	}
}
