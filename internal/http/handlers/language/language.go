// Package language переключает язык интерфейса клиента консоли.
package language

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
)

// Handler обрабатывает POST /language.
type Handler struct {
	log *slog.Logger
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP меняет язык из поля lang и возвращает на страницу из поля return.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.language"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	target := returnPath(r.PostFormValue("return"))
	lang := r.PostFormValue("lang")
	if err := c.Locale.SetLanguage(lang); err != nil {
		log.Info("language not changed", slog.String("lang", lang), sl.Err(err))
		if errors.Is(err, locale.ErrUnsupportedLanguage) {
			c.AddNotice(console.Notice{Error: true, Text: "Unsupported language: " + lang})
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnPath допускает только локальные пути.
func returnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	return p
}
