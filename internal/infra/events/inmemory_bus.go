package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

// InMemoryEventBus imita la topología del broker dentro del proceso:
// exchanges fan-out y colas con buffer que sobreviven a las conexiones.
type InMemoryEventBus struct {
	queues   map[string]chan sharedBus.Message
	bindings map[string][]string // exchange -> colas
	buffer   int
	mu       sync.RWMutex
	log      *zap.Logger
}

var _ domain.EventPublisher = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(bufferSize int, log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		queues:   make(map[string]chan sharedBus.Message),
		bindings: make(map[string][]string),
		buffer:   bufferSize,
		log:      log,
	}
}

// declare crea la cola si no existe y la enlaza al exchange.
func (b *InMemoryEventBus) declare(exchange, queue string) chan sharedBus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[queue]
	if !ok {
		q = make(chan sharedBus.Message, b.buffer)
		b.queues[queue] = q
	}
	for _, bound := range b.bindings[exchange] {
		if bound == queue {
			return q
		}
	}
	b.bindings[exchange] = append(b.bindings[exchange], queue)
	return q
}

// Declare crea y enlaza las colas por adelantado, para que lo publicado antes
// de que arranquen los consumidores no se pierda.
func (b *InMemoryEventBus) Declare(exchange string, queues ...string) {
	for _, q := range queues {
		b.declare(exchange, q)
	}
}

// Publish copia el mensaje en todas las colas enlazadas al exchange.
// Sin colas enlazadas el mensaje se pierde, como en un fan-out real.
func (b *InMemoryEventBus) Publish(ctx context.Context, evt domain.Event, exchange, routingKey string) error {
	body, err := domain.EncodeEvent(evt)
	if err != nil {
		return err
	}

	msg := sharedBus.Message{
		ID:         uuid.NewString(),
		Type:       string(evt.Type()),
		RoutingKey: routingKey,
		Body:       body,
		Timestamp:  time.Now().UTC(),
	}

	b.mu.RLock()
	targets := make([]chan sharedBus.Message, 0, len(b.bindings[exchange]))
	for _, name := range b.bindings[exchange] {
		targets = append(targets, b.queues[name])
	}
	b.mu.RUnlock()

	for _, q := range targets {
		select {
		case q <- msg:
		case <-ctx.Done():
			return domain.NewTransportError("publish", ctx.Err())
		}
	}
	return nil
}

// Dialer entrega una conexión nueva sobre el mismo bus para cada worker.
func (b *InMemoryEventBus) Dialer() sharedBus.Dialer {
	return func(ctx context.Context) (sharedBus.ConsumerConnection, error) {
		return &inMemoryConnection{bus: b, closed: make(chan struct{})}, nil
	}
}

type inMemoryConnection struct {
	bus    *InMemoryEventBus
	closed chan struct{}
	once   sync.Once
}

func (c *inMemoryConnection) Consume(ctx context.Context, exchange, queue string, handler sharedBus.Handler) error {
	q := c.bus.declare(exchange, queue)
	handleCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return errors.New("in-memory connection closed")
		case msg := <-q:
			if !sharedBus.SafeHandle(handleCtx, handler, msg, c.bus.log) {
				c.bus.log.Warn("⚠️ Mensaje descartado", zap.String("queue", queue), zap.String("type", msg.Type))
			}
		}
	}
}

func (c *inMemoryConnection) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
