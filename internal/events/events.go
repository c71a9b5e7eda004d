// Package events публикует доменные события консоли в RabbitMQ.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/rabbitmq"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

// Ключи маршрутизации.
const (
	RestaurantStatusChanged = "restaurant.status_changed"
	TrialActivated          = "subscription.trial_activated"
)

// StatusChanged публикуется после смены статуса ресторана.
type StatusChanged struct {
	RestaurantID string    `json:"restaurant_id"`
	Status       string    `json:"status"`
	At           time.Time `json:"at"`
}

// TrialActivatedEvent публикуется после создания пробной подписки.
type TrialActivatedEvent struct {
	RestaurantID   string `json:"restaurant_id"`
	SubscriptionID string `json:"subscription_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

// Queues: очереди, которые консоль объявляет на своём exchange.
func Queues() []rabbitmq.QueueConfig {
	return []rabbitmq.QueueConfig{
		{QueueName: "console.restaurant.status", RoutingKey: RestaurantStatusChanged},
		{QueueName: "console.subscription.trial", RoutingKey: TrialActivated},
	}
}

// Publisher отправляет события в exchange.
type Publisher struct {
	exchange string
	log      *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   rabbitmq.Channel
}

// Connect подключается к брокеру и готовит exchange.
func Connect(url, exchange string, log *slog.Logger) (*Publisher, error) {
	const op = "events.Connect"

	conn, err := rabbitmq.Connect(url, 5, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, exchange, Queues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("connected to rabbitmq", slog.String("exchange", exchange))
	return &Publisher{exchange: exchange, log: log, conn: conn, ch: ch}, nil
}

// NewPublisher оборачивает уже открытый канал.
func NewPublisher(ch rabbitmq.Channel, exchange string, log *slog.Logger) *Publisher {
	return &Publisher{exchange: exchange, log: log, ch: ch}
}

// Publish отправляет payload с ключом routingKey.
func (p *Publisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, routingKey, payload); err != nil {
		p.log.Error("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
		return err
	}
	return nil
}

// Close закрывает соединение с брокером.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// NopPublisher используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
