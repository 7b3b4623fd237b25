package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	sharedCache "github.com/davicafu/catalogo/shared/platform/cache"
)

type entry struct {
	value     []byte // JSON, igual que en Redis
	expiresAt time.Time
}

// InMemoryProductCache es la caché de respaldo cuando no hay Redis.
type InMemoryProductCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

var _ sharedCache.Cache = (*InMemoryProductCache)(nil)

// NewInMemoryProductCache arranca una goroutine que purga las claves expiradas
// cada cleanupInterval. Llamar a Stop al apagar.
func NewInMemoryProductCache(defaultTTL, cleanupInterval time.Duration) *InMemoryProductCache {
	c := &InMemoryProductCache{
		items:      make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go c.janitor(cleanupInterval)
	return c
}

func (c *InMemoryProductCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *InMemoryProductCache) Set(_ context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	ttl := c.defaultTTL
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}

	c.mu.Lock()
	c.items[key] = entry{value: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryProductCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryProductCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemoryProductCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryProductCache) purgeExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
