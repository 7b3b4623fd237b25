package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const asyncTimeout = 200 * time.Millisecond

// AsyncCacheSet actualiza la caché en background sin bloquear al llamante.
// Usa su propio contexto: la petición original puede haber terminado ya.
// Si la clave se invalidó después de la generación gen, no escribe.
func AsyncCacheSet(cache *Guarded, key string, value interface{}, ttl int, gen uint64, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		written, err := cache.SetIfCurrent(cacheCtx, key, value, ttl, gen)
		if err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
			return
		}
		if !written {
			log.Debug("Cache update skipped, key invalidated after read", zap.String("key", key))
		}
	}()
}

// InvalidateCache borra la clave de forma síncrona. Un fallo solo se registra.
func InvalidateCache(ctx context.Context, cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, asyncTimeout)
	defer cancel()

	if err := cache.Delete(cacheCtx, key); err != nil {
		log.Warn("Cache deletion failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
