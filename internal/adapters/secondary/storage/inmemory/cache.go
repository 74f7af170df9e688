package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/ports/cache"
)

type cacheItem struct {
	value     string
	expiresAt time.Time // zero - без TTL
}

// Cache in-memory реализация cache.Cache с TTL, используется когда Redis не настроен
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

var _ cache.Cache = (*Cache)(nil)

// NewCache создаёт новый in-memory кэш
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.expired(item) {
		return "", cache.ErrNotFound
	}
	return item.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()
	c.items[key] = item
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == cache.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (c *Cache) Close() error {
	return nil
}

func (c *Cache) expired(item cacheItem) bool {
	return !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt)
}

// evictExpiredLocked чистит протухшие ключи, вызывать под mu
func (c *Cache) evictExpiredLocked() {
	for k, item := range c.items {
		if c.expired(item) {
			delete(c.items, k)
		}
	}
}
