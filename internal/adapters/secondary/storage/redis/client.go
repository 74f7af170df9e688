package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/ports/cache"
	"github.com/redis/go-redis/v9"
)

// Client обёртка над redis.Client, реализует cache.Cache.
// Все ключи пишутся с префиксом, чтобы делить Redis с другими ботами.
type Client struct {
	client *redis.Client
	prefix string
}

var _ cache.Cache = (*Client)(nil)

// NewClient создаёт новый Redis-клиент
func NewClient(client *redis.Client, prefix string) *Client {
	return &Client{
		client: client,
		prefix: prefix,
	}
}

func (c *Client) key(key string) string {
	return c.prefix + key
}

// Get получает значение по ключу, cache.ErrNotFound если ключа нет
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// Set устанавливает значение с TTL
func (c *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete удаляет значение по ключу
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Exists проверяет существование ключа
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return count > 0, nil
}

// Ping проверяет соединение (для /ready)
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает подключение к кэшу
func (c *Client) Close() error {
	return c.client.Close()
}
