// Package trial принимает форму активации пробной подписки.
package trial

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/dashboard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

// Тексты уведомлений.
const (
	MsgActivated         = "Trial subscription activated successfully!"
	MsgAlreadySubscribed = "This restaurant already has a subscription record."
	MsgFailedPrefix      = "Failed to activate trial: "
)

// Handler обрабатывает POST /restaurants/{id}/trial.
type Handler struct {
	log *slog.Logger
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP активирует пробную подписку и возвращает на панель.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.trial"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer http.Redirect(w, r, "/", http.StatusSeeOther)

	id := chi.URLParam(r, "id")
	_, err := c.Dashboard.ActivateTrial(r.Context(), id)
	switch {
	case errors.Is(err, dashboard.ErrAlreadySubscribed):
		log.Info("restaurant already subscribed", slog.String("restaurant_id", id))
		c.AddNotice(console.Notice{Error: true, Text: MsgAlreadySubscribed})
	case err != nil:
		log.Error("failed to activate trial", sl.Err(err))
		c.AddNotice(console.Notice{Error: true, Text: MsgFailedPrefix + dashboard.Reason(err)})
	default:
		c.AddNotice(console.Notice{Text: MsgActivated})
	}
}
