package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedCache "github.com/davicafu/catalogo/shared/platform/cache"
)

// ProductInput son los campos en primitivos que llegan desde la capa de entrada.
type ProductInput struct {
	Name     string
	Price    decimal.Decimal
	Category string
	ImageURL string
	Status   string
	OwnerID  string
}

// ProductService orquesta los comandos (escritura → publicación) y las consultas sobre la proyección.
type ProductService struct {
	repo      domain.ProductRepository
	reads     domain.ProductReadStore
	publisher domain.EventPublisher
	notifier  domain.EventNotifier
	cache     *sharedCache.Guarded
	exchange  string
	log       *zap.Logger
}

type Option func(*ProductService)

// WithNotifier registra un notificador en proceso que se invoca tras cada publicación correcta.
func WithNotifier(n domain.EventNotifier) Option {
	return func(s *ProductService) { s.notifier = n }
}

// WithCache activa el cache-aside en GetProduct. Para que una invalidación de
// las proyecciones descarte lecturas en vuelo, ambos deben compartir el mismo
// *sharedCache.Guarded.
func WithCache(c sharedCache.Cache) Option {
	return func(s *ProductService) {
		if c != nil {
			s.cache = sharedCache.NewGuarded(c)
		}
	}
}

func WithExchange(name string) Option {
	return func(s *ProductService) { s.exchange = name }
}

func NewProductService(repo domain.ProductRepository, reads domain.ProductReadStore, publisher domain.EventPublisher, log *zap.Logger, opts ...Option) *ProductService {
	s := &ProductService{
		repo:      repo,
		reads:     reads,
		publisher: publisher,
		exchange:  domain.ProductExchange,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Comandos ---

// CreateProduct valida, persiste y publica ProductoCreado. Solo publica si Add tuvo éxito.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (uuid.UUID, error) {
	status := in.Status
	if status == "" {
		status = domain.StatusAvailable
	}

	p, err := domain.NewProduct(uuid.New(), in.Name, in.Price, in.Category, in.ImageURL, status, in.OwnerID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.Add(ctx, p); err != nil {
		return uuid.Nil, fmt.Errorf("add product: %w", err)
	}

	if err := s.publish(ctx, domain.NewProductCreated(p)); err != nil {
		return uuid.Nil, err
	}

	s.log.Info("Producto creado", zap.String("product_id", p.ID().String()))
	return p.ID(), nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("get product: %w", err)
	}

	if err := p.Update(in.Name, in.Price, in.Category, in.ImageURL, in.Status, in.OwnerID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if err := s.publish(ctx, domain.NewProductUpdated(p)); err != nil {
		return err
	}

	s.log.Info("Producto actualizado", zap.String("product_id", id.String()))
	return nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("get product: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.publish(ctx, domain.NewProductDeleted(id)); err != nil {
		return err
	}

	s.log.Info("Producto eliminado", zap.String("product_id", id.String()))
	return nil
}

// publish no compensa: si falla, el almacén de escritura queda por delante del de lectura.
func (s *ProductService) publish(ctx context.Context, evt domain.Event) error {
	if err := s.publisher.Publish(ctx, evt, s.exchange, evt.RoutingKey()); err != nil {
		s.log.Error("❌ Fallo publicando evento tras escribir",
			zap.String("event_type", string(evt.Type())),
			zap.String("product_id", evt.ProductID().String()),
			zap.Error(err),
		)
		if !domain.IsTransport(err) {
			err = domain.NewTransportError("publish "+string(evt.Type()), err)
		}
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, evt)
	}
	return nil
}

// --- Consultas (lado de lectura) ---

// ListProducts lee la proyección, no el almacén de escritura.
// Los documentos que no pasan la validación se omiten con un aviso.
func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	docs, err := s.reads.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := domain.FromSnapshot(doc)
		if err != nil {
			s.log.Warn("Documento de lectura inválido omitido", zap.String("product_id", doc.ID.String()), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct usa cache-aside sobre la proyección.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	key := domain.ProductCacheKeyByID(id)

	var gen uint64
	if s.cache != nil {
		gen = s.cache.Generation(key)
		var cached domain.Snapshot
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return domain.FromSnapshot(cached)
		}
	}

	doc, err := s.reads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := domain.FromSnapshot(doc)
	if err != nil {
		return nil, err
	}

	// TTL 0: manda el TTL por defecto del adaptador (CACHE_TTL)
	sharedCache.AsyncCacheSet(s.cache, key, doc, 0, gen, s.log)
	return p, nil
}
