// Package login реализует страницы входа консоли: администратора и владельца ресторана.
//
// Вход не переключает страницу сам: после успешного запроса обработчик ждёт,
// пока событие бэкенда обновит хранилище сессии, и только тогда перенаправляет.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/PRECISEKY/food-admin-panel/internal/backend"
	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/response"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/session"
)

// Request: поля формы входа.
type Request struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Options описывает вариант страницы входа.
type Options struct {
	Requirement guard.Requirement // раздел, куда ведёт вход
	Title       string
	Target      string        // куда перенаправить после входа
	Wait        time.Duration // сколько ждать события входа
}

// Handler обрабатывает страницу входа.
type Handler struct {
	log      *slog.Logger
	pages    *views.Renderer
	opts     Options
	validate *validator.Validate
}

// New создаёт обработчик страницы входа.
func New(log *slog.Logger, pages *views.Renderer, opts Options) *Handler {
	return &Handler{
		log:      log,
		pages:    pages,
		opts:     opts,
		validate: validator.New(),
	}
}

// Show показывает форму. Если доступ к разделу уже есть, перенаправляет в него.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login.Show"
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
	if session.Settled(snap) && guard.Evaluate(snap, h.opts.Requirement) == guard.Granted {
		log.Debug("already signed in, redirecting", slog.String("target", h.opts.Target))
		http.Redirect(w, r, h.opts.Target, http.StatusSeeOther)
		return
	}

	h.render(w, r, c, http.StatusOK, views.LoginForm{Action: r.URL.Path}, log)
}

// ServeHTTP принимает форму входа.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		h.render(w, r, c, http.StatusBadRequest, views.LoginForm{Action: r.URL.Path, Error: "invalid request body"}, log)
		return
	}
	req := Request{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	form := views.LoginForm{Action: r.URL.Path, Email: req.Email}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			form.Error = response.ValidationError(verrs).Error
		} else {
			form.Error = err.Error()
		}
		h.render(w, r, c, http.StatusUnprocessableEntity, form, log)
		return
	}

	if err := c.Store.SignIn(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			log.Info("invalid credentials", slog.String("email", req.Email))
			form.Error = "Invalid login credentials"
			h.render(w, r, c, http.StatusUnauthorized, form, log)
			return
		}
		log.Error("login failed", sl.Err(err))
		form.Error = "An error occurred during login."
		h.render(w, r, c, http.StatusBadGateway, form, log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Wait)
	defer cancel()
	snap, err := c.Store.Await(ctx, func(s session.Snapshot) bool {
		return s.User != nil && strings.EqualFold(s.User.Email, req.Email) && session.Settled(s)
	})
	if err != nil {
		// Событие входа ещё не пришло: защищённый раздел покажет страницу проверки.
		log.Warn("sign-in event not observed in time", sl.Err(err))
		http.Redirect(w, r, h.opts.Target, http.StatusSeeOther)
		return
	}

	if guard.Evaluate(snap, h.opts.Requirement) != guard.Granted {
		log.Info("signed in without access to section", slog.String("guard", h.opts.Requirement.Name))
		form.Error = "This account does not have access to this section."
		h.render(w, r, c, http.StatusForbidden, form, log)
		return
	}

	log.Info("login success", slog.String("email", req.Email))
	http.Redirect(w, r, h.opts.Target, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c *console.Client, status int, form views.LoginForm, log *slog.Logger) {
	if err := h.pages.Render(w, status, views.Login, views.NewPage(c, r, h.opts.Title, form)); err != nil {
		log.Error("failed to render page", sl.Err(err))
	}
}
