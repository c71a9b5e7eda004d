// Package logout завершает сессию клиента консоли.
package logout

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// Handler обрабатывает POST /logout.
type Handler struct {
	log  *slog.Logger
	wait time.Duration
}

// New создаёт обработчик выхода.
func New(log *slog.Logger, wait time.Duration) *Handler {
	return &Handler{log: log, wait: wait}
}

// ServeHTTP запрашивает выход, ждёт события SIGNED_OUT и перенаправляет на
// страницу входа раздела, из которого пришёл пользователь.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	target := guard.Admin.LoginPath
	if strings.HasPrefix(r.PostFormValue("return"), "/restaurant") {
		target = guard.Restaurant.LoginPath
	}

	if err := c.Store.SignOut(r.Context()); err != nil {
		log.Error("sign out failed", sl.Err(err))
		c.AddNotice(console.Notice{Error: true, Text: "Failed to sign out: " + err.Error()})
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()
	if _, err := c.Store.Await(ctx, func(s session.Snapshot) bool { return !s.HasSession() }); err != nil {
		log.Warn("sign-out event not observed in time", sl.Err(err))
	}

	log.Info("signed out")
	http.Redirect(w, r, target, http.StatusSeeOther)
}
