package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/application"
	"github.com/davicafu/catalogo/internal/product/domain"
	productEvents "github.com/davicafu/catalogo/internal/product/infra/inbound/events"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
	"github.com/davicafu/catalogo/tests/mocks"
)

// ---------- Fakes de canal AMQP ----------

type declaredExchange struct {
	name    string
	kind    string
	durable bool
}

type fakePublishChannel struct {
	exchanges  []declaredExchange
	published  []amqp.Publishing
	keys       []string
	publishErr error
}

func (f *fakePublishChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges = append(f.exchanges, declaredExchange{name: name, kind: kind, durable: durable})
	return nil
}

func (f *fakePublishChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakePublishChannel) Close() error { return nil }

type ackRecord struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	records []ackRecord
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, ackRecord{tag: tag, ack: true})
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, ackRecord{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) snapshot() []ackRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ackRecord(nil), a.records...)
}

type fakeConsumeChannel struct {
	deliveries chan amqp.Delivery

	exchangeKind string
	queueDurable bool
	boundKey     string
	prefetch     int
	autoAck      bool
	closed       bool
}

func (f *fakeConsumeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchangeKind = kind
	return nil
}

func (f *fakeConsumeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queueDurable = durable
	return amqp.Queue{Name: name}, nil
}

func (f *fakeConsumeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.boundKey = key
	return nil
}

func (f *fakeConsumeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeConsumeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	f.autoAck = autoAck
	return f.deliveries, nil
}

func (f *fakeConsumeChannel) Close() error {
	f.closed = true
	return nil
}

// ---------- Publicador ----------

func TestRabbitPublisher_Publish(t *testing.T) {
	// Arrange
	ch := &fakePublishChannel{}
	publisher := newRabbitPublisher(ch, zap.NewNop())
	evt := domain.ProductUpdated{ID: uuid.New(), Name: "Mesa", Price: decimal.NewFromInt(10)}

	// Act
	err := publisher.Publish(context.Background(), evt, domain.ProductExchange, evt.RoutingKey())

	// Assert
	require.NoError(t, err)
	require.Len(t, ch.exchanges, 1)
	assert.Equal(t, declaredExchange{name: domain.ProductExchange, kind: amqp.ExchangeFanout, durable: true}, ch.exchanges[0])

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "ProductoActualizadoEvent", msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.NotEmpty(t, msg.MessageId)
	assert.Equal(t, "producto.actualizado", ch.keys[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, evt.ID.String(), body["Id"])
}

func TestRabbitPublisher_PublishFailureIsTransportError(t *testing.T) {
	ch := &fakePublishChannel{publishErr: amqp.ErrClosed}
	publisher := newRabbitPublisher(ch, zap.NewNop())

	err := publisher.Publish(context.Background(), domain.NewProductDeleted(uuid.New()), domain.ProductExchange, domain.RoutingKeyDeleted)

	assert.True(t, domain.IsTransport(err))
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

// ---------- Conexión de consumo ----------

func runRabbitConsumer(t *testing.T, ch *fakeConsumeChannel, handler sharedBus.Handler) (cancel func() error) {
	t.Helper()
	conn := newRabbitConsumerConnection(ch, zap.NewNop())
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conn.Consume(ctx, domain.ProductExchange, domain.QueueProductCreated, handler) }()

	return func() error {
		stop()
		select {
		case err := <-done:
			require.NoError(t, conn.Close())
			return err
		case <-time.After(time.Second):
			t.Fatal("Consume no terminó tras cancelar")
			return nil
		}
	}
}

func TestRabbitConsumer_TopologyAndAcks(t *testing.T) {
	// Arrange
	acker := &fakeAcknowledger{}
	ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 3)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Type: "ok"}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Type: "fail"}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Type: "panic"}

	handler := func(ctx context.Context, msg sharedBus.Message) bool {
		switch msg.Type {
		case "panic":
			panic("boom")
		case "fail":
			return false
		}
		return true
	}

	// Act
	stop := runRabbitConsumer(t, ch, handler)
	require.Eventually(t, func() bool { return len(acker.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	err := stop()

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []ackRecord{
		{tag: 1, ack: true},
		{tag: 2, ack: false, requeue: false},
		{tag: 3, ack: false, requeue: false},
	}, acker.snapshot())
	assert.Equal(t, amqp.ExchangeFanout, ch.exchangeKind)
	assert.True(t, ch.queueDurable)
	assert.Equal(t, "", ch.boundKey)
	assert.Equal(t, 1, ch.prefetch)
	assert.False(t, ch.autoAck)
	assert.True(t, ch.closed)
}

func TestRabbitConsumer_ClosedDeliveriesIsError(t *testing.T) {
	ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery)}
	close(ch.deliveries)
	conn := newRabbitConsumerConnection(ch, zap.NewNop())

	err := conn.Consume(context.Background(), domain.ProductExchange, "q", func(context.Context, sharedBus.Message) bool { return true })

	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}

// Mensaje "not json" etiquetado como ProductoCreadoEvent: nack sin reencolar y ninguna inserción.
func TestRabbitConsumer_MalformedCreatedEventIsDropped(t *testing.T) {
	// Arrange
	store := mocks.NewInMemoryReadStore()
	consumer := productEvents.NewCreatedConsumer(application.NewCreateApplier(store, zap.NewNop()), zap.NewNop())
	acker := &fakeAcknowledger{}
	ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 1)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 7, Type: "ProductoCreadoEvent", Body: []byte("not json")}

	// Act
	stop := runRabbitConsumer(t, ch, consumer.HandleMessage)
	require.Eventually(t, func() bool { return len(acker.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	_ = stop()

	// Assert
	assert.Equal(t, []ackRecord{{tag: 7, ack: false, requeue: false}}, acker.snapshot())
	assert.Equal(t, 0, store.Inserts)
}
