package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	DB       int
	Password string
}

// Cache is a thin logging wrapper over a redis client.
type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Cache{rdb: rdb, logger: logger.Named("redis")}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Error("PING failed", zap.Error(err))
	}
	return err
}

func (c *Cache) Close() {
	if err := c.rdb.Close(); err != nil {
		c.logger.Warn("error while closing", zap.Error(err))
	}
}

// SetNX sets key only when it does not exist yet.
func (c *Cache) SetNX(ctx context.Context, key string, val string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		c.logger.Error("SETNX failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	c.logger.Debug("SETNX", zap.String("key", key), zap.Bool("acquired", ok), zap.Duration("ttl", ttl))
	return ok, nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Error("EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n == 1, nil
}
