package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
	"github.com/davicafu/catalogo/shared/utils"
)

// MessageConsumer es lo que un Worker necesita de un consumidor por tipo.
type MessageConsumer interface {
	Queue() string
	HandleMessage(ctx context.Context, msg sharedBus.Message) bool
}

// Worker posee su propia conexión al broker: la abre al arrancar y la cierra al salir.
type Worker struct {
	exchange string
	consumer MessageConsumer
	dial     sharedBus.Dialer
	attempts int
	delay    time.Duration
	log      *zap.Logger
}

func NewWorker(exchange string, consumer MessageConsumer, dial sharedBus.Dialer, log *zap.Logger) *Worker {
	return &Worker{
		exchange: exchange,
		consumer: consumer,
		dial:     dial,
		attempts: 1,
		log:      log,
	}
}

// WithDialRetry reintenta la conexión inicial.
func (w *Worker) WithDialRetry(attempts int, delay time.Duration) *Worker {
	if attempts > 0 {
		w.attempts = attempts
	}
	w.delay = delay
	return w
}

// Run bloquea hasta que ctx se cancela o la conexión se pierde.
// No hay reconexión: una conexión perdida termina el worker con error.
func (w *Worker) Run(ctx context.Context) error {
	queue := w.consumer.Queue()

	var conn sharedBus.ConsumerConnection
	err := utils.Retry(ctx, w.attempts, w.delay, func() error {
		c, dialErr := w.dial(ctx)
		if dialErr != nil {
			w.log.Warn("Broker no disponible, reintentando", zap.String("queue", queue), zap.Error(dialErr))
			return dialErr
		}
		conn = c
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			w.log.Info("Consumidor cancelado antes de conectar", zap.String("queue", queue))
			return nil
		}
		return fmt.Errorf("dial broker for %s: %w", queue, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			w.log.Warn("Error cerrando la conexión del consumidor", zap.String("queue", queue), zap.Error(cerr))
		}
	}()

	w.log.Info("🎧 Consumidor iniciado", zap.String("exchange", w.exchange), zap.String("queue", queue))

	err = conn.Consume(ctx, w.exchange, queue, w.consumer.HandleMessage)
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		w.log.Info("Consumidor detenido", zap.String("queue", queue))
		return nil
	}
	if err == nil {
		err = errors.New("delivery stream closed")
	}
	return fmt.Errorf("consume %s: %w", queue, err)
}
