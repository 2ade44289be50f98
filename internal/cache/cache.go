package cache

import (
	"context"
	"errors"
	"time"

	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Cache redis 缓存的薄封装。未配置 redis 时所有操作都退化为未命中，
// 调用方不需要感知缓存是否可用。
type Cache struct {
	client *redis.Client
}

// New 创建缓存，addr 为空时返回空实现
func New(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return &Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, cache disabled: %v", err)
		return &Cache{}
	}

	logger.Info("Redis cache connected: %s", cfg.Addr)
	return &Cache{client: client}
}

// Get 读取缓存，未命中或未启用时返回 ("", false)
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c.client == nil {
		return "", false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Cache get %s failed: %v", key, err)
		}
		return "", false
	}
	return val, true
}

// Set 写入缓存，失败只记日志
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("Cache set %s failed: %v", key, err)
	}
}

// Delete 删除缓存键
func (c *Cache) Delete(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Warn("Cache delete %s failed: %v", key, err)
	}
}
