package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client - обертка над go-redis для нужд сервиса: rate limiting и health check.
// Кэширования ссылок здесь нет, Redis в этом сервисе не является хранилищем.
type Client struct {
	client     *redis.Client
	keyBuilder *KeyBuilder
}

type Config struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	Namespace    string
}

// NewClient создает новый Redis клиент и проверяет соединение
func NewClient(cfg Config) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, NewRedisError("connect", "", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return &Client{
		client:     client,
		keyBuilder: NewKeyBuilder(cfg.Namespace),
	}, nil
}

// IncrementRateLimit увеличивает счетчик запросов клиента в пределах окна.
// INCR и EXPIRE идут одним pipeline, счетчик живет не дольше окна.
func (c *Client) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, NewRedisError("increment", key, err)
	}

	return incr.Val(), nil
}

// HealthCheck проверяет соединение с Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return NewRedisError("ping", "", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return NewRedisError("close", "", err)
	}
	return nil
}

// Keys возвращает построитель ключей
func (c *Client) Keys() *KeyBuilder {
	return c.keyBuilder
}
