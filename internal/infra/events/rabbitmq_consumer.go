package events

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

// consumeChannel es el subconjunto de *amqp.Channel que usa el consumidor.
type consumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// RabbitConsumerConnection es la conexión y el canal propios de un worker.
type RabbitConsumerConnection struct {
	conn *amqp.Connection
	ch   consumeChannel
	mu   sync.Mutex
	log  *zap.Logger
}

var _ sharedBus.ConsumerConnection = (*RabbitConsumerConnection)(nil)

func DialRabbitConsumer(url string, log *zap.Logger) (*RabbitConsumerConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitConsumerConnection{conn: conn, ch: ch, log: log}, nil
}

// RabbitDialer devuelve un Dialer que abre una conexión nueva por worker.
func RabbitDialer(url string, log *zap.Logger) sharedBus.Dialer {
	return func(ctx context.Context) (sharedBus.ConsumerConnection, error) {
		return DialRabbitConsumer(url, log)
	}
}

func newRabbitConsumerConnection(ch consumeChannel, log *zap.Logger) *RabbitConsumerConnection {
	return &RabbitConsumerConnection{ch: ch, log: log}
}

// Consume declara exchange fan-out, cola durable y binding, fija prefetch=1
// y procesa las entregas de una en una con ack manual.
func (c *RabbitConsumerConnection) Consume(ctx context.Context, exchange, queue string, handler sharedBus.Handler) error {
	if err := c.ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return err
	}
	q, err := c.ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := c.ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return err
	}
	if err := c.ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	// El mensaje en curso termina aunque se cancele ctx.
	handleCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			c.handle(handleCtx, queue, d, handler)
		}
	}
}

func (c *RabbitConsumerConnection) handle(ctx context.Context, queue string, d amqp.Delivery, handler sharedBus.Handler) {
	msg := sharedBus.Message{
		ID:         d.MessageId,
		Type:       d.Type,
		RoutingKey: d.RoutingKey,
		Body:       d.Body,
		Timestamp:  d.Timestamp,
	}

	if sharedBus.SafeHandle(ctx, handler, msg, c.log) {
		if err := d.Ack(false); err != nil {
			c.log.Error("Ack failed", zap.String("queue", queue), zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
		}
		return
	}

	c.log.Warn("⚠️ Mensaje rechazado sin reencolar",
		zap.String("queue", queue),
		zap.String("type", d.Type),
		zap.String("message_id", d.MessageId),
	)
	if err := d.Nack(false, false); err != nil {
		c.log.Error("Nack failed", zap.String("queue", queue), zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
	}
}

// Close libera canal y conexión. Cerrar el canal cancela el consumo en el broker.
func (c *RabbitConsumerConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
		c.ch = nil
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
		c.conn = nil
	}
	return errors.Join(errs...)
}
