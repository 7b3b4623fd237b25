package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/application"
	"github.com/davicafu/catalogo/internal/product/domain"
	productEvents "github.com/davicafu/catalogo/internal/product/infra/inbound/events"
	"github.com/davicafu/catalogo/tests/mocks"
)

// Flujo completo: comando -> bus en memoria -> tres workers -> proyección.
func TestInMemoryBus_EndToEndProjection(t *testing.T) {
	// Arrange
	log := zap.NewNop()
	bus := NewInMemoryEventBus(16, log)
	repo := mocks.NewInMemoryProductRepo()
	reads := mocks.NewInMemoryReadStore()
	notifier := NewLocalNotifier()
	notifications := notifier.Subscribe(10)
	service := application.NewProductService(repo, reads, bus, log, application.WithNotifier(notifier))

	workers := []*productEvents.Worker{
		productEvents.NewWorker(domain.ProductExchange, productEvents.NewCreatedConsumer(application.NewCreateApplier(reads, log), log), bus.Dialer(), log),
		productEvents.NewWorker(domain.ProductExchange, productEvents.NewUpdatedConsumer(application.NewUpdateApplier(reads, nil, log), log), bus.Dialer(), log),
		productEvents.NewWorker(domain.ProductExchange, productEvents.NewDeletedConsumer(application.NewDeleteApplier(reads, nil, log), log), bus.Dialer(), log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *productEvents.Worker) {
			defer wg.Done()
			assert.NoError(t, w.Run(ctx))
		}(w)
	}
	// Las colas se declaran al arrancar cada worker.
	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.bindings[domain.ProductExchange]) == 3
	}, time.Second, 5*time.Millisecond)

	// Act + Assert: alta
	id, err := service.CreateProduct(ctx, application.ProductInput{
		Name: "Chair", Price: decimal.RequireFromString("49.99"), Category: "Furniture", ImageURL: "https://x/img.png",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		doc, err := reads.FindByID(ctx, id)
		return err == nil && doc.Name == "Chair"
	}, time.Second, 5*time.Millisecond)

	// Actualización
	err = service.UpdateProduct(ctx, id, application.ProductInput{
		Name: "Chair", Price: decimal.RequireFromString("39.99"), Category: "Furniture", ImageURL: "https://x/img.png", Status: "oferta",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		doc, err := reads.FindByID(ctx, id)
		return err == nil && doc.Status == "oferta"
	}, time.Second, 5*time.Millisecond)

	// Baja
	require.NoError(t, service.DeleteProduct(ctx, id))
	require.Eventually(t, func() bool {
		_, err := reads.FindByID(ctx, id)
		return err == domain.ErrProductNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()

	// Cada mensaje llega a las tres colas, pero solo su consumidor lo proyecta.
	assert.Equal(t, 1, reads.Inserts)
	assert.Equal(t, 1, reads.Upserts)
	assert.Equal(t, 1, reads.Deletes)
	assert.Len(t, notifications, 3)
}

func TestInMemoryBus_PublishWithoutQueuesIsLost(t *testing.T) {
	bus := NewInMemoryEventBus(1, zap.NewNop())

	err := bus.Publish(context.Background(), domain.NewProductDeleted(uuid.New()), domain.ProductExchange, "")

	assert.NoError(t, err)
}

func TestInMemoryBus_DeclareIsIdempotent(t *testing.T) {
	bus := NewInMemoryEventBus(1, zap.NewNop())

	q1 := bus.declare(domain.ProductExchange, domain.QueueProductCreated)
	q2 := bus.declare(domain.ProductExchange, domain.QueueProductCreated)

	assert.Equal(t, q1, q2)
	assert.Len(t, bus.bindings[domain.ProductExchange], 1)
}

func TestLocalNotifier_DropsWhenSubscriberIsFull(t *testing.T) {
	n := NewLocalNotifier()
	sub := n.Subscribe(1)
	evt := domain.NewProductDeleted(uuid.New())

	n.Notify(context.Background(), evt)
	n.Notify(context.Background(), evt)

	assert.Len(t, sub, 1)
}

// Lo publicado tras Declare y antes de que arranque el worker se entrega igualmente.
func TestInMemoryBus_DeclareBeforeWorkersKeepsEarlyEvents(t *testing.T) {
	// Arrange
	log := zap.NewNop()
	bus := NewInMemoryEventBus(4, log)
	bus.Declare(domain.ProductExchange, domain.QueueProductCreated, domain.QueueProductUpdated, domain.QueueProductDeleted)
	reads := mocks.NewInMemoryReadStore()
	service := application.NewProductService(mocks.NewInMemoryProductRepo(), reads, bus, log)

	id, err := service.CreateProduct(context.Background(), application.ProductInput{
		Name: "Chair", Price: decimal.RequireFromString("49.99"), Category: "Furniture", ImageURL: "https://x/img.png",
	})
	require.NoError(t, err)

	// Act: el worker arranca después de la publicación
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := productEvents.NewWorker(domain.ProductExchange,
		productEvents.NewCreatedConsumer(application.NewCreateApplier(reads, log), log), bus.Dialer(), log)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Assert
	require.Eventually(t, func() bool {
		_, err := reads.FindByID(context.Background(), id)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
