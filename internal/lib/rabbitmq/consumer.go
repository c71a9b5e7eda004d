package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

// ErrDiscard: сообщение не может быть обработано никогда, его не нужно возвращать в очередь.
var ErrDiscard = errors.New("discard message")

// Source: канал, из которого читаются сообщения.
type Source interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает одно сообщение.
type Handler func(ctx context.Context, d amqp.Delivery) error

// ConsumerMessage читает очередь queueName и обрабатывает до workers сообщений одновременно.
// Успех подтверждается Ack, ошибка возвращает сообщение в очередь, ErrDiscard отбрасывает его.
// Возвращённый WaitGroup завершается, когда поток доставок закрыт или ctx отменён
// и все начатые обработчики вернулись.
func ConsumerMessage(ctx context.Context, ch Source, queueName string, workers int, log *slog.Logger, handler Handler) (*sync.WaitGroup, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if workers <= 0 {
		workers = 1
	}
	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					settle(log, d, handler(ctx, d))
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return &wg, nil
}

func settle(log *slog.Logger, d amqp.Delivery, err error) {
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrDiscard):
		log.Warn("message discarded", slog.String("message_id", d.MessageId), sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("failed to handle message, requeueing", slog.String("message_id", d.MessageId), sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
