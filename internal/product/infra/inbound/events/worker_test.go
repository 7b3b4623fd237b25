package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedBus "github.com/davicafu/catalogo/shared/platform/bus"
)

// fakeConnection entrega los mensajes dados y luego espera a que ctx termine.
type fakeConnection struct {
	messages []sharedBus.Message
	results  []bool
	closeErr error
	endErr   error

	mu       sync.Mutex
	closed   bool
	exchange string
	queue    string
}

func (c *fakeConnection) Consume(ctx context.Context, exchange, queue string, handler sharedBus.Handler) error {
	c.mu.Lock()
	c.exchange, c.queue = exchange, queue
	c.mu.Unlock()

	for _, m := range c.messages {
		ok := handler(ctx, m)
		c.mu.Lock()
		c.results = append(c.results, ok)
		c.mu.Unlock()
	}
	if c.endErr != nil {
		return c.endErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.closeErr
}

func (c *fakeConnection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type stubConsumer struct{ queue string }

func (s stubConsumer) Queue() string { return s.queue }
func (s stubConsumer) HandleMessage(ctx context.Context, msg sharedBus.Message) bool {
	return msg.Type == "ok"
}

func TestWorker_RunsUntilCancelledAndReleasesConnection(t *testing.T) {
	// Arrange
	conn := &fakeConnection{messages: []sharedBus.Message{{Type: "ok"}, {Type: "bad"}}}
	dial := func(ctx context.Context) (sharedBus.ConsumerConnection, error) { return conn, nil }
	worker := NewWorker(domain.ProductExchange, stubConsumer{queue: domain.QueueProductCreated}, dial, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- worker.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("el worker no se detuvo tras la cancelación")
	}
	assert.True(t, conn.isClosed(), "La conexión se libera al salir")
	assert.Equal(t, domain.ProductExchange, conn.exchange)
	assert.Equal(t, domain.QueueProductCreated, conn.queue)
	assert.Equal(t, []bool{true, false}, conn.results)
}

func TestWorker_LostConnectionIsFatal(t *testing.T) {
	conn := &fakeConnection{endErr: errors.New("channel closed")}
	dial := func(ctx context.Context) (sharedBus.ConsumerConnection, error) { return conn, nil }
	worker := NewWorker(domain.ProductExchange, stubConsumer{queue: "q"}, dial, zap.NewNop())

	err := worker.Run(context.Background())

	assert.ErrorContains(t, err, "channel closed")
	assert.True(t, conn.isClosed())
}

func TestWorker_DialRetry(t *testing.T) {
	// Arrange
	conn := &fakeConnection{endErr: errors.New("fin")}
	attempts := 0
	dial := func(ctx context.Context) (sharedBus.ConsumerConnection, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return conn, nil
	}
	worker := NewWorker(domain.ProductExchange, stubConsumer{queue: "q"}, dial, zap.NewNop()).
		WithDialRetry(3, time.Millisecond)

	// Act
	err := worker.Run(context.Background())

	// Assert
	assert.ErrorContains(t, err, "fin")
	assert.Equal(t, 3, attempts)
}

func TestWorker_DialFailure(t *testing.T) {
	dial := func(ctx context.Context) (sharedBus.ConsumerConnection, error) {
		return nil, errors.New("connection refused")
	}
	worker := NewWorker(domain.ProductExchange, stubConsumer{queue: "q"}, dial, zap.NewNop()).
		WithDialRetry(2, time.Millisecond)

	err := worker.Run(context.Background())

	assert.ErrorContains(t, err, "connection refused")
}

func TestWorker_CancelledWhileDialingIsCleanShutdown(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	dial := func(context.Context) (sharedBus.ConsumerConnection, error) {
		attempts++
		cancel() // SIGTERM llega mientras el broker sigue caído
		return nil, errors.New("connection refused")
	}
	worker := NewWorker(domain.ProductExchange, stubConsumer{queue: "q"}, dial, zap.NewNop()).
		WithDialRetry(5, time.Hour)

	// Act
	err := worker.Run(ctx)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
