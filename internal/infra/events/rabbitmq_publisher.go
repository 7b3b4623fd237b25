package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
)

const contentTypeJSON = "application/json"

// publishChannel es el subconjunto de *amqp.Channel que usa el publicador.
type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publica eventos en un exchange fan-out durable.
// El canal AMQP no admite publicaciones concurrentes, de ahí el mutex.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   publishChannel
	mu   sync.Mutex
	log  *zap.Logger
}

var _ domain.EventPublisher = (*RabbitPublisher)(nil)

// DialRabbitPublisher abre una conexión y un canal dedicados a publicar.
func DialRabbitPublisher(url string, log *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, domain.NewTransportError("dial rabbitmq", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, domain.NewTransportError("open channel", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, log: log}, nil
}

func newRabbitPublisher(ch publishChannel, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, log: log}
}

// Publish declara el exchange (idempotente) y envía el evento como mensaje persistente.
func (p *RabbitPublisher) Publish(ctx context.Context, evt domain.Event, exchange, routingKey string) error {
	body, err := domain.EncodeEvent(evt)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return domain.NewTransportError("declare exchange", err)
	}

	msg := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         string(evt.Type()),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		p.log.Error("Error publishing to RabbitMQ",
			zap.String("exchange", exchange),
			zap.String("event_type", string(evt.Type())),
			zap.Error(err),
		)
		return domain.NewTransportError("publish", err)
	}

	p.log.Debug("Event published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.String("event_type", string(evt.Type())),
		zap.String("product_id", evt.ProductID().String()),
	)
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
