package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
)

const (
	listKey          = "catalog:products"
	productKeyPrefix = "catalog:product:"
)

// ErrCacheMiss is returned by Cache lookups for absent keys.
var ErrCacheMiss = errors.New("catalog cache miss")

// Cache stores catalog reads.
type Cache interface {
	GetList(ctx context.Context) ([]domain.Product, error)
	SetList(ctx context.Context, products []domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, p *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

// RedisCache implements Cache with JSON values under a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-backed catalog cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// GetList returns the cached product list.
func (c *RedisCache) GetList(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.get(ctx, listKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SetList caches the full product list.
func (c *RedisCache) SetList(ctx context.Context, products []domain.Product) error {
	return c.set(ctx, listKey, products)
}

// GetProduct returns a cached product.
func (c *RedisCache) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, productKeyPrefix+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProduct caches a single product.
func (c *RedisCache) SetProduct(ctx context.Context, p *domain.Product) error {
	return c.set(ctx, productKeyPrefix+p.ID, p)
}

// Invalidate drops the product and the list it appears in.
func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id, listKey).Err(); err != nil {
		return fmt.Errorf("redis del catalog: %w", err)
	}
	return nil
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
