package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

// Cabeceras Kafka que sustituyen a las propiedades AMQP.
const (
	headerType       = "type"
	headerRoutingKey = "routing_key"
	headerMessageID  = "message_id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica en el topic que corresponde al exchange.
// El writer no debe tener Topic fijo: cada mensaje lleva el suyo.
type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
}

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(writer messageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt domain.Event, exchange, routingKey string) error {
	data, err := domain.EncodeEvent(evt)
	if err != nil {
		return err
	}

	var key []byte
	if keyer, ok := evt.(sharedBus.Keyer); ok {
		key = []byte(keyer.PartitionKey())
	}

	msg := kafka.Message{
		Topic: exchange,
		Key:   key,
		Value: data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: headerType, Value: []byte(evt.Type())},
			{Key: headerRoutingKey, Value: []byte(routingKey)},
			{Key: headerMessageID, Value: []byte(uuid.NewString())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka", zap.String("topic", exchange), zap.Error(err))
		return domain.NewTransportError("publish", err)
	}

	p.log.Debug("Event published successfully",
		zap.String("topic", exchange),
		zap.String("event_type", string(evt.Type())),
		zap.String("product_id", evt.ProductID().String()),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
