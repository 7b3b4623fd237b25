package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// InMemoryProductRepo simula ProductRepository. Guarda snapshots para no compartir punteros.
type InMemoryProductRepo struct {
	Products map[uuid.UUID]domain.Snapshot
	AddCalls int
	// ErrOnAdd, si no es nil, se devuelve en Add sin guardar nada.
	ErrOnAdd error
	mu       sync.Mutex
}

var _ domain.ProductRepository = (*InMemoryProductRepo)(nil)

func NewInMemoryProductRepo() *InMemoryProductRepo {
	return &InMemoryProductRepo{Products: make(map[uuid.UUID]domain.Snapshot)}
}

func (r *InMemoryProductRepo) Add(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AddCalls++
	if r.ErrOnAdd != nil {
		return r.ErrOnAdd
	}
	if _, ok := r.Products[p.ID()]; ok {
		return domain.ErrProductAlreadyExists
	}
	r.Products[p.ID()] = p.Snapshot()
	return nil
}

func (r *InMemoryProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Products[p.ID()]; !ok {
		return domain.ErrProductNotFound
	}
	r.Products[p.ID()] = p.Snapshot()
	return nil
}

func (r *InMemoryProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.Products, id)
	return nil
}

func (r *InMemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return domain.FromSnapshot(s)
}

// InMemoryReadStore es un espía de ProductReadStore que cuenta las llamadas.
type InMemoryReadStore struct {
	Docs    map[uuid.UUID]domain.Snapshot
	Inserts int
	Upserts int
	Deletes int
	// Err, si no es nil, lo devuelven todas las operaciones de escritura.
	Err error
	mu  sync.Mutex
}

var _ domain.ProductReadStore = (*InMemoryReadStore)(nil)

func NewInMemoryReadStore() *InMemoryReadStore {
	return &InMemoryReadStore{Docs: make(map[uuid.UUID]domain.Snapshot)}
}

func (s *InMemoryReadStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Inserts + s.Upserts + s.Deletes
}

func (s *InMemoryReadStore) FindAll(ctx context.Context) ([]domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]domain.Snapshot, 0, len(s.Docs))
	for _, d := range s.Docs {
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *InMemoryReadStore) FindByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Docs[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrProductNotFound
	}
	return d, nil
}

func (s *InMemoryReadStore) Insert(ctx context.Context, doc domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inserts++
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Docs[doc.ID]; ok {
		return domain.ErrProductAlreadyExists
	}
	s.Docs[doc.ID] = doc
	return nil
}

func (s *InMemoryReadStore) Upsert(ctx context.Context, doc domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Upserts++
	if s.Err != nil {
		return s.Err
	}
	s.Docs[doc.ID] = doc
	return nil
}

func (s *InMemoryReadStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes++
	if s.Err != nil {
		return s.Err
	}
	delete(s.Docs, id)
	return nil
}

// MockPublisher es un mock de EventPublisher basado en testify.
type MockPublisher struct {
	mock.Mock
}

var _ domain.EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, evt domain.Event, exchange, routingKey string) error {
	args := m.Called(ctx, evt, exchange, routingKey)
	return args.Error(0)
}

// RecordingNotifier guarda los eventos notificados.
type RecordingNotifier struct {
	Events []domain.Event
	mu     sync.Mutex
}

func (n *RecordingNotifier) Notify(ctx context.Context, evt domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, evt)
}
