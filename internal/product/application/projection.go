package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/domain"
	sharedCache "github.com/davicafu/catalogo/shared/platform/cache"
)

// Los appliers mantienen la colección de lectura a partir de los eventos.
// Un evento nil es un no-op: ninguna llamada al almacén y sin error.

// CreateApplier inserta el documento de un producto recién creado.
type CreateApplier struct {
	store domain.ProductReadStore
	log   *zap.Logger
}

func NewCreateApplier(store domain.ProductReadStore, log *zap.Logger) *CreateApplier {
	return &CreateApplier{store: store, log: log}
}

func (a *CreateApplier) Apply(ctx context.Context, evt *domain.ProductCreated) error {
	if evt == nil {
		return nil
	}

	p, err := domain.FromSnapshot(evt.Snapshot())
	if err != nil {
		return err
	}

	if err := a.store.Insert(ctx, p.Snapshot()); err != nil {
		// Ya proyectado (p.ej. por un Updated anterior): el documento converge igual.
		if errors.Is(err, domain.ErrProductAlreadyExists) {
			a.log.Info("Documento ya existente, 'ProductoCreado' ignorado", zap.String("product_id", evt.ID.String()))
			return nil
		}
		return err
	}

	a.log.Info("✅ Producto proyectado", zap.String("product_id", evt.ID.String()))
	return nil
}

// UpdateApplier reemplaza el documento completo (upsert). Aplicarlo dos veces da el mismo documento.
type UpdateApplier struct {
	store domain.ProductReadStore
	cache sharedCache.Cache
	log   *zap.Logger
}

func NewUpdateApplier(store domain.ProductReadStore, cache sharedCache.Cache, log *zap.Logger) *UpdateApplier {
	return &UpdateApplier{store: store, cache: cache, log: log}
}

func (a *UpdateApplier) Apply(ctx context.Context, evt *domain.ProductUpdated) error {
	if evt == nil {
		return nil
	}

	p, err := domain.FromSnapshot(evt.Snapshot())
	if err != nil {
		return err
	}

	if err := a.store.Upsert(ctx, p.Snapshot()); err != nil {
		return err
	}
	sharedCache.InvalidateCache(ctx, a.cache, domain.ProductCacheKeyByID(evt.ID), a.log)

	a.log.Info("✅ Proyección de producto actualizada", zap.String("product_id", evt.ID.String()))
	return nil
}

// DeleteApplier borra el documento. Borrar un id inexistente no es un error.
type DeleteApplier struct {
	store domain.ProductReadStore
	cache sharedCache.Cache
	log   *zap.Logger
}

func NewDeleteApplier(store domain.ProductReadStore, cache sharedCache.Cache, log *zap.Logger) *DeleteApplier {
	return &DeleteApplier{store: store, cache: cache, log: log}
}

func (a *DeleteApplier) Apply(ctx context.Context, evt *domain.ProductDeleted) error {
	if evt == nil {
		return nil
	}

	if err := a.store.Delete(ctx, evt.ID); err != nil {
		return err
	}
	sharedCache.InvalidateCache(ctx, a.cache, domain.ProductCacheKeyByID(evt.ID), a.log)

	a.log.Info("🗑️ Proyección de producto eliminada", zap.String("product_id", evt.ID.String()))
	return nil
}
