package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked map[uint64]bool // tag -> requeue
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked[tag] = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type chanSource struct {
	deliveries chan amqp.Delivery
	err        error
}

func (s chanSource) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return s.deliveries, s.err
}

func TestConsumerMessage_Settles(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	acks := &ackRecorder{nacked: map[uint64]bool{}}
	src := chanSource{deliveries: make(chan amqp.Delivery, 3)}

	handler := func(_ context.Context, d amqp.Delivery) error {
		switch string(d.Body) {
		case "ok":
			return nil
		case "poison":
			return ErrDiscard
		default:
			return errors.New("temporary")
		}
	}

	wg, err := ConsumerMessage(context.Background(), src, "q", 2, log, handler)
	require.NoError(t, err)

	src.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte("ok")}
	src.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("poison")}
	src.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte("flaky")}
	close(src.deliveries)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish")
	}

	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, map[uint64]bool{2: false, 3: true}, acks.nacked)
}

func TestConsumerMessage_StopsOnContext(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := chanSource{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	wg, err := ConsumerMessage(ctx, src, "q", 1, log, func(context.Context, amqp.Delivery) error { return nil })
	require.NoError(t, err)
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumerMessage_ConsumeError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := ConsumerMessage(context.Background(), chanSource{err: errors.New("channel closed")}, "q", 1, log, nil)
	assert.ErrorContains(t, err, "rabbitmq.ConsumerMessage: channel closed")
}
