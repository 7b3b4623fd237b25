package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

// Applier proyecta un evento de tipo E sobre el almacén de lectura.
type Applier[E domain.Event] interface {
	Apply(ctx context.Context, evt *E) error
}

// ProductConsumer atiende una sola cola y un solo tipo de evento.
// Otros tipos se confirman y se ignoran. Cualquier fallo devuelve false (nack sin reencolar).
type ProductConsumer[E domain.Event] struct {
	eventType domain.EventType
	applier   Applier[E]
	eventLog  domain.EventLog
	log       *zap.Logger
}

func NewProductConsumer[E domain.Event](applier Applier[E], log *zap.Logger) *ProductConsumer[E] {
	var zero E
	return &ProductConsumer[E]{
		eventType: zero.Type(),
		applier:   applier,
		log:       log,
	}
}

func NewCreatedConsumer(applier Applier[domain.ProductCreated], log *zap.Logger) *ProductConsumer[domain.ProductCreated] {
	return NewProductConsumer[domain.ProductCreated](applier, log)
}

func NewUpdatedConsumer(applier Applier[domain.ProductUpdated], log *zap.Logger) *ProductConsumer[domain.ProductUpdated] {
	return NewProductConsumer[domain.ProductUpdated](applier, log)
}

func NewDeletedConsumer(applier Applier[domain.ProductDeleted], log *zap.Logger) *ProductConsumer[domain.ProductDeleted] {
	return NewProductConsumer[domain.ProductDeleted](applier, log)
}

// WithEventLog registra cada proyección aplicada. Un fallo del registro no afecta al ack.
func (c *ProductConsumer[E]) WithEventLog(l domain.EventLog) *ProductConsumer[E] {
	c.eventLog = l
	return c
}

func (c *ProductConsumer[E]) EventType() domain.EventType { return c.eventType }

func (c *ProductConsumer[E]) Queue() string { return domain.QueueFor(c.eventType) }

// HandleMessage es el punto de entrada para cada entrega.
func (c *ProductConsumer[E]) HandleMessage(ctx context.Context, msg sharedBus.Message) bool {
	t, ok := domain.ParseEventType(msg.Type)
	if !ok || t != c.eventType {
		c.log.Debug("Evento de otro tipo ignorado",
			zap.String("queue", c.Queue()),
			zap.String("type", msg.Type),
		)
		return true
	}

	evt, err := domain.DecodeEvent[E](msg.Body)
	if err != nil {
		c.log.Warn("Payload de evento inválido, se descarta",
			zap.String("queue", c.Queue()),
			zap.String("message_id", msg.ID),
			zap.ByteString("body", msg.Body),
			zap.Error(err),
		)
		return false
	}

	if err := c.applier.Apply(ctx, &evt); err != nil {
		c.log.Warn("Failed to project product event",
			zap.String("event_type", string(c.eventType)),
			zap.String("product_id", evt.ProductID().String()),
			zap.Error(err),
		)
		return false
	}

	c.record(ctx, evt)
	return true
}

func (c *ProductConsumer[E]) record(ctx context.Context, evt E) {
	if c.eventLog == nil {
		return
	}
	entry := domain.EventLogEntry{
		EventType: c.eventType,
		ProductID: evt.ProductID(),
		Queue:     c.Queue(),
		AppliedAt: time.Now().UTC(),
	}
	if err := c.eventLog.Record(ctx, entry); err != nil {
		c.log.Warn("Event log write failed", zap.String("product_id", entry.ProductID.String()), zap.Error(err))
	}
}
