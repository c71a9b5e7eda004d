// Package audit: процесс, читающий доменные события консоли из RabbitMQ
// и пишущий их в структурированный журнал.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/events"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/rabbitmq"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
)

const workersPerQueue = 4

// ErrConnectionLost: брокер закрыл соединение или очереди до отмены контекста.
var ErrConnectionLost = errors.New("amqp consumption stopped unexpectedly")

type App struct {
	src      rabbitmq.Source
	connLost <-chan *amqp.Error
	shutdown func()
	auditor  *events.Auditor
	logger   *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "audit.New"
	if cfg.AMQP.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("amqp url is not configured"))
	}
	conn, err := rabbitmq.Connect(cfg.AMQP.URL, 5, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.AMQP.Exchange, events.Queues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shutdown := func() {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.Error("failed to close channel", sl.Err(err))
		}
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	return newApp(ch, conn.NotifyClose(make(chan *amqp.Error, 1)), shutdown, logger), nil
}

func newApp(src rabbitmq.Source, connLost <-chan *amqp.Error, shutdown func(), logger *slog.Logger) *App {
	return &App{
		src:      src,
		connLost: connLost,
		shutdown: shutdown,
		auditor:  events.NewAuditor(logger),
		logger:   logger,
	}
}

// Run читает все очереди консоли до отмены ctx. Если брокер закрыл соединение
// или поток доставок раньше, Run возвращает ErrConnectionLost.
func (a *App) Run(ctx context.Context) error {
	const op = "audit.Run"
	defer a.shutdown()

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var running []*sync.WaitGroup
	for _, q := range events.Queues() {
		wg, err := rabbitmq.ConsumerMessage(consumeCtx, a.src, q.QueueName, workersPerQueue, a.logger, a.auditor.Handle)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			cancel()
			waitAll(running)
			return fmt.Errorf("%s: %w", op, err)
		}
		running = append(running, wg)
	}

	// Достаточно остановки одной очереди: остальные без неё неполны.
	stopped := make(chan struct{}, len(running))
	for _, wg := range running {
		go func(wg *sync.WaitGroup) {
			wg.Wait()
			stopped <- struct{}{}
		}(wg)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("audit service shutting down gracefully")
		waitAll(running)
		return nil
	case amqpErr := <-a.connLost:
		a.logger.Error("amqp connection lost", slog.Any("reason", amqpErr))
		cancel()
		waitAll(running)
		return fmt.Errorf("%s: %w: %v", op, ErrConnectionLost, amqpErr)
	case <-stopped:
		if ctx.Err() != nil {
			waitAll(running)
			return nil
		}
		a.logger.Error("amqp delivery stream closed")
		cancel()
		waitAll(running)
		return fmt.Errorf("%s: %w", op, ErrConnectionLost)
	}
}

func waitAll(running []*sync.WaitGroup) {
	for _, wg := range running {
		wg.Wait()
	}
}
