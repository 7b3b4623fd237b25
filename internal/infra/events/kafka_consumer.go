package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumerConnection lee un topic (exchange) como grupo de consumo (cola).
// Cada cola es un grupo distinto, así que todas reciben todos los mensajes.
// Ack y nack sin reencolar se traducen igual: commit del offset.
type KafkaConsumerConnection struct {
	brokers   []string
	newReader func(topic, groupID string) messageReader
	reader    messageReader
	mu        sync.Mutex
	log       *zap.Logger
}

var _ sharedBus.ConsumerConnection = (*KafkaConsumerConnection)(nil)

func NewKafkaConsumerConnection(brokers []string, log *zap.Logger) *KafkaConsumerConnection {
	c := &KafkaConsumerConnection{brokers: brokers, log: log}
	c.newReader = c.defaultReader
	return c
}

// KafkaDialer devuelve un Dialer con una conexión nueva por worker.
func KafkaDialer(brokers []string, log *zap.Logger) sharedBus.Dialer {
	return func(ctx context.Context) (sharedBus.ConsumerConnection, error) {
		return NewKafkaConsumerConnection(brokers, log), nil
	}
}

func (c *KafkaConsumerConnection) defaultReader(topic, groupID string) messageReader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:       c.brokers,
		Topic:         topic,
		GroupID:       groupID,
		QueueCapacity: 1,
		MinBytes:      1,
		MaxBytes:      10e6, // 10MB
	})
}

func (c *KafkaConsumerConnection) Consume(ctx context.Context, exchange, queue string, handler sharedBus.Handler) error {
	reader := c.newReader(exchange, queue)
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	c.log.Info("🎧 Iniciando consumidor de Kafka",
		zap.String("topic", exchange),
		zap.String("group", queue),
		zap.Strings("brokers", c.brokers),
	)

	handleCtx := context.WithoutCancel(ctx)

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		msg := toBusMessage(m)
		if !sharedBus.SafeHandle(handleCtx, handler, msg, c.log) {
			c.log.Warn("⚠️ Mensaje descartado",
				zap.String("group", queue),
				zap.String("type", msg.Type),
				zap.Int64("offset", m.Offset),
			)
		}

		if err := reader.CommitMessages(handleCtx, m); err != nil {
			return fmt.Errorf("commit kafka offset: %w", err)
		}
	}
}

func toBusMessage(m kafka.Message) sharedBus.Message {
	msg := sharedBus.Message{Body: m.Value, Timestamp: m.Time}
	for _, h := range m.Headers {
		switch h.Key {
		case headerType:
			msg.Type = string(h.Value)
		case headerRoutingKey:
			msg.RoutingKey = string(h.Value)
		case headerMessageID:
			msg.ID = string(h.Value)
		}
	}
	return msg
}

func (c *KafkaConsumerConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.reader = nil
	return err
}
