// Package middlewarectx содержит middleware консоли: привязку запроса к клиенту
// консоли по cookie и проверку доступа к защищённым разделам.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Client: ключ клиента консоли в контексте.
const Client Key = "console_client"

// Registry выдаёт клиентов консоли.
type Registry interface {
	Get(ctx context.Context, id string, lang locale.Language) (*console.Client, error)
}

const cookieMaxAge = 30 * 24 * time.Hour

// ClientResolver находит или создаёт клиента консоли по cookie и кладёт его в контекст.
// Язык нового клиента выбирается по Accept-Language.
func ClientResolver(reg Registry, cfg config.Console, log *slog.Logger) func(http.Handler) http.Handler {
	fallback := locale.Language(cfg.DefaultLanguage)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.ClientResolver"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if _, ok := ClientFrom(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			lang := locale.Negotiate(r.Header.Get("Accept-Language"), fallback)

			id := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				id = cookie.Value
			}

			var c *console.Client
			var err error
			if id != "" {
				c, err = reg.Get(r.Context(), id, lang)
				if err != nil {
					log.Warn("failed to resolve console client, issuing a new one", sl.Err(err))
				}
			}
			if c == nil {
				id = console.NewClientID()
				c, err = reg.Get(r.Context(), id, lang)
			}
			if err != nil {
				log.Error("failed to create console client", sl.Err(err))
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), Client, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFrom возвращает клиента консоли из контекста.
func ClientFrom(ctx context.Context) (*console.Client, bool) {
	c, ok := ctx.Value(Client).(*console.Client)
	return c, ok && c != nil
}
