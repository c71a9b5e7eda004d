// Package menu отрисовывает меню ресторана с поиском.
package menu

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/menu"
)

// Handler обрабатывает GET /restaurant/menu?q=.
type Handler struct {
	log   *slog.Logger
	pages *views.Renderer
}

// New создаёт обработчик.
func New(log *slog.Logger, pages *views.Renderer) *Handler {
	return &Handler{log: log, pages: pages}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.restaurant.menu"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	data := views.MenuData{
		Query:      query,
		Items:      menu.Filter(string(c.Locale.Language()), query),
		Categories: menu.Categories(),
		Counts:     menu.CountByCategory(),
	}
	if err := h.pages.Render(w, http.StatusOK, views.Menu, views.NewPage(c, r, "Menu", data)); err != nil {
		log.Error("failed to render page", sl.Err(err))
	}
}
