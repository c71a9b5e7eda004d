// Package api реализует JSON API консоли поверх того же клиента консоли,
// что и HTML-страницы.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/dashboard"
	"github.com/PRECISEKY/food-admin-panel/internal/guard"
	"github.com/PRECISEKY/food-admin-panel/internal/http/middlewarectx"
	"github.com/PRECISEKY/food-admin-panel/internal/http/response"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/models"
	"github.com/PRECISEKY/food-admin-panel/internal/storage"
)

// Handler обслуживает /api/v1.
type Handler struct {
	log      *slog.Logger
	validate *validator.Validate
}

// New создаёт обработчик API.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log:      log,
		validate: validator.New(),
	}
}

// StatusRequest: тело запроса смены статуса.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected" example:"approved"`
}

// MeResponse: текущая сессия и состояние обоих автоматов доступа.
type MeResponse struct {
	User       *models.UserIdentity `json:"user"`
	Profile    *models.Profile      `json:"profile"`
	Admin      string               `json:"admin_access"`
	Restaurant string               `json:"restaurant_access"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func client(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*console.Client, bool) {
	c, ok := middlewarectx.ClientFrom(r.Context())
	if !ok {
		log.Error("console client missing from context")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
	}
	return c, ok
}

// Me godoc
// @Summary Текущий пользователь
// @Description Возвращает пользователя сессии, его профиль и состояние доступа к разделам.
// @Tags Session
// @Produce json
// @Success 200 {object} response.Response{data=MeResponse}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 503 {object} response.ErrorResponse "Сессия ещё проверяется"
// @Router /api/v1/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.api.Me")
	c, ok := client(w, r, log)
	if !ok {
		return
	}
	snap := c.Store.Snapshot()
	render.JSON(w, r, response.OKWithData(MeResponse{
		User:       snap.User,
		Profile:    snap.Profile,
		Admin:      guard.Evaluate(snap, guard.Admin).String(),
		Restaurant: guard.Evaluate(snap, guard.Restaurant).String(),
	}))
}

// Pending godoc
// @Summary Заявки ресторанов
// @Description Рестораны в статусе pending, от старых к новым.
// @Tags Restaurants
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Restaurant}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 502 {object} response.ErrorResponse "Ошибка бэкенда"
// @Router /api/v1/restaurants/pending [get]
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.api.Pending")
	c, ok := client(w, r, log)
	if !ok {
		return
	}
	items, err := c.Dashboard.ListPending(r.Context())
	if err != nil {
		log.Error("failed to list pending restaurants", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
		return
	}
	render.JSON(w, r, response.OKWithData(nonNil(items)))
}

// Activatable godoc
// @Summary Рестораны без подписки
// @Description Одобренные рестораны, у которых ещё нет ни одной подписки.
// @Tags Restaurants
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Restaurant}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 502 {object} response.ErrorResponse "Ошибка бэкенда"
// @Router /api/v1/restaurants/activatable [get]
func (h *Handler) Activatable(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.api.Activatable")
	c, ok := client(w, r, log)
	if !ok {
		return
	}
	items, err := c.Dashboard.ListActivatable(r.Context())
	if err != nil {
		log.Error("failed to list activatable restaurants", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
		return
	}
	render.JSON(w, r, response.OKWithData(nonNil(items)))
}

// SetStatus godoc
// @Summary Одобрить или отклонить ресторан
// @Tags Restaurants
// @Accept json
// @Produce json
// @Param id path string true "ID ресторана"
// @Param request body StatusRequest true "Новый статус"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Ресторан не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка бэкенда"
// @Router /api/v1/restaurants/{id}/status [post]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.api.SetStatus")
	c, ok := client(w, r, log)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.JSON(w, r, response.ValidationError(verrs))
		} else {
			render.JSON(w, r, response.Error(err.Error()))
		}
		return
	}

	id := chi.URLParam(r, "id")
	err := c.Dashboard.SetStatus(r.Context(), id, models.RestaurantStatus(req.Status))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info("restaurant not found", slog.String("restaurant_id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("restaurant not found"))
	case errors.Is(err, dashboard.ErrInvalidStatus):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
	case err != nil:
		log.Error("failed to update status", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
	default:
		log.Info("restaurant status updated", slog.String("restaurant_id", id), slog.String("status", req.Status))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"id":     id,
			"status": req.Status,
		}))
	}
}

// ActivateTrial godoc
// @Summary Активировать пробную подписку
// @Description Создаёт 14-дневную пробную подписку для ресторана без подписок.
// @Tags Subscriptions
// @Produce json
// @Param id path string true "ID ресторана"
// @Success 201 {object} response.Response{data=models.Subscription}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Ресторан не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка уже есть"
// @Failure 502 {object} response.ErrorResponse "Ошибка бэкенда"
// @Router /api/v1/restaurants/{id}/trial [post]
func (h *Handler) ActivateTrial(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.api.ActivateTrial")
	c, ok := client(w, r, log)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	sub, err := c.Dashboard.ActivateTrial(r.Context(), id)
	switch {
	case errors.Is(err, dashboard.ErrAlreadySubscribed):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
	case errors.Is(err, storage.ErrNotFound):
		log.Info("restaurant not found", slog.String("restaurant_id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("restaurant not found"))
	case err != nil:
		log.Error("failed to activate trial", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(dashboard.Reason(err)))
	default:
		log.Info("trial activated", slog.String("restaurant_id", id), slog.String("subscription_id", sub.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.OKWithData(sub))
	}
}

// nonNil отдаёт пустой список вместо null.
func nonNil(items []models.Restaurant) []models.Restaurant {
	if items == nil {
		return []models.Restaurant{}
	}
	return items
}
