// Package home отрисовывает главную страницу владельца ресторана.
package home

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

// Handler обрабатывает GET /restaurant/dashboard.
type Handler struct {
	log   *slog.Logger
	pages *views.Renderer
}

// New создаёт обработчик.
func New(log *slog.Logger, pages *views.Renderer) *Handler {
	return &Handler{log: log, pages: pages}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.restaurant.home"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Профиль проверен автоматом доступа раздела.
	profile := c.Store.Snapshot().Profile
	if err := h.pages.Render(w, http.StatusOK, views.RestaurantDashboard, views.NewPage(c, r, "Dashboard", profile)); err != nil {
		log.Error("failed to render page", sl.Err(err))
	}
}
