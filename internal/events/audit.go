package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/rabbitmq"
	"github.com/PRECISEKY/food-admin-panel/internal/metrics"
)

// Auditor пишет доменные события консоли в журнал.
type Auditor struct {
	log *slog.Logger
}

// NewAuditor создаёт Auditor.
func NewAuditor(log *slog.Logger) *Auditor {
	return &Auditor{log: log}
}

// Handle разбирает событие по ключу маршрутизации. Неизвестный ключ и
// некорректное тело отбрасываются через rabbitmq.ErrDiscard.
func (a *Auditor) Handle(_ context.Context, d amqp.Delivery) error {
	const op = "events.Auditor.Handle"
	key := d.RoutingKey
	if key == "" {
		key = d.Type
	}
	log := a.log.With(
		slog.String("op", op),
		slog.String("routing_key", key),
		slog.String("message_id", d.MessageId),
	)

	var attrs []any
	switch key {
	case RestaurantStatusChanged:
		var ev StatusChanged
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			metrics.EventsConsumed.WithLabelValues(key, metrics.OutcomeFailure).Inc()
			return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrDiscard, err)
		}
		attrs = []any{
			slog.String("restaurant_id", ev.RestaurantID),
			slog.String("status", ev.Status),
			slog.Time("at", ev.At),
		}
	case TrialActivated:
		var ev TrialActivatedEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			metrics.EventsConsumed.WithLabelValues(key, metrics.OutcomeFailure).Inc()
			return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrDiscard, err)
		}
		attrs = []any{
			slog.String("restaurant_id", ev.RestaurantID),
			slog.String("subscription_id", ev.SubscriptionID),
			slog.String("start_date", ev.StartDate),
			slog.String("end_date", ev.EndDate),
		}
	default:
		metrics.EventsConsumed.WithLabelValues("unknown", metrics.OutcomeFailure).Inc()
		return fmt.Errorf("%s: %w: unknown routing key %q", op, rabbitmq.ErrDiscard, key)
	}

	metrics.EventsConsumed.WithLabelValues(key, metrics.OutcomeSuccess).Inc()
	log.Info("domain event", attrs...)
	return nil
}
