// Package status принимает форму одобрения или отклонения заявки ресторана.
package status

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/dashboard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/response"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
)

// Request: целевой статус ресторана.
type Request struct {
	ID     string `validate:"required"`
	Status string `validate:"required,oneof=approved rejected"`
}

// Handler обрабатывает POST /restaurants/{id}/status.
type Handler struct {
	log      *slog.Logger
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log, validate: validator.New()}
}

// ServeHTTP меняет статус и возвращает на панель с уведомлением о результате.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.status"
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

	req := Request{ID: chi.URLParam(r, "id"), Status: r.PostFormValue("status")}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		msg := err.Error()
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg = response.ValidationError(verrs).Error
		}
		c.AddNotice(console.Notice{Error: true, Text: "Failed to update status: " + msg})
		return
	}

	if err := c.Dashboard.SetStatus(r.Context(), req.ID, models.RestaurantStatus(req.Status)); err != nil {
		log.Error("failed to update status", sl.Err(err))
		c.AddNotice(console.Notice{Error: true, Text: "Failed to update status: " + dashboard.Reason(err)})
		return
	}
	c.AddNotice(console.Notice{Text: "Restaurant " + req.Status + " successfully!"})
}
