package cache

import (
	"context"
	"sync"
)

// Guarded envuelve una Cache y cuenta las invalidaciones por clave.
// Una lectura que captura Generation antes de ir al almacén solo repuebla la
// caché con SetIfCurrent si nadie ha invalidado la clave entretanto.
// Solo protege a quienes comparten la misma instancia (mismo proceso).
type Guarded struct {
	Cache
	mu   sync.Mutex
	gens map[string]uint64
}

var _ Cache = (*Guarded)(nil)

// NewGuarded devuelve c tal cual si ya está protegida.
func NewGuarded(c Cache) *Guarded {
	if g, ok := c.(*Guarded); ok {
		return g
	}
	return &Guarded{Cache: c, gens: make(map[string]uint64)}
}

func (g *Guarded) Generation(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[key]
}

// Delete invalida la clave y avanza su generación.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[key]++
	return g.Cache.Delete(ctx, key)
}

// SetIfCurrent escribe solo si la generación sigue siendo gen. Devuelve false si se descartó.
func (g *Guarded) SetIfCurrent(ctx context.Context, key string, val interface{}, ttlSecs int, gen uint64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens[key] != gen {
		return false, nil
	}
	return true, g.Cache.Set(ctx, key, val, ttlSecs)
}
