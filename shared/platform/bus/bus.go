package bus

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Keyer lo implementan los eventos que fijan su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// Message es la vista neutral de una entrega, independiente del broker.
type Message struct {
	ID         string
	Type       string
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler procesa un mensaje. true => ack, false => nack sin reencolar.
type Handler func(ctx context.Context, msg Message) bool

// ConsumerConnection es la conexión propia de un worker.
// Consume declara la topología y entrega mensajes de uno en uno hasta que ctx se cancela.
type ConsumerConnection interface {
	Consume(ctx context.Context, exchange, queue string, handler Handler) error
	Close() error
}

// Dialer abre una conexión nueva para un worker.
type Dialer func(ctx context.Context) (ConsumerConnection, error)

// SafeHandle ejecuta el handler y trata un panic como fallo.
func SafeHandle(ctx context.Context, h Handler, msg Message, log *zap.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("💥 Panic procesando mensaje",
				zap.String("message_id", msg.ID),
				zap.String("type", msg.Type),
				zap.String("panic", fmt.Sprint(r)),
			)
			ok = false
		}
	}()
	return h(ctx, msg)
}
