package redis

import (
	"context"
	"fmt"
	"time"

	"nearbyu-loyalty/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("redis",
	fx.Provide(New),
)

// New connects to REDIS.ADDR. An unreachable server only fails startup when
// redis is the document store backend.
func New(lc fx.Lifecycle, c *config.Config) (*redis.Client, error) {
	fields := []zap.Field{
		zap.String("addr", c.Redis.Addr),
		zap.Int("db", c.Redis.DB),
		zap.Int("pool_size", c.Redis.PoolSize),
		zap.Duration("pool_timeout", c.Redis.PoolTimeout),
	}

	zapLog := zap.L().With(fields...)

	rdb := redis.NewClient(&redis.Options{
		Addr:        c.Redis.Addr,
		Password:    c.Redis.Password,
		DB:          c.Redis.DB,
		PoolSize:    c.Redis.PoolSize,
		PoolTimeout: c.Redis.PoolTimeout,
	})

	required := c.Store.Backend == "redis"
	retries := 1
	if required {
		retries = 5
	}

	var err error
	for i := 0; i < retries; i++ {
		if err = rdb.Ping(context.Background()).Err(); err == nil {
			break
		}
		if i+1 < retries {
			zapLog.Warn("[Redis] Redis not ready, retrying in 3 seconds...", zap.Int("retry", i+1), zap.Error(err))
			time.Sleep(3 * time.Second)
		}
	}

	switch {
	case err != nil && required:
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", c.Redis.Addr, err)
	case err != nil:
		zapLog.Warn("[Redis] Redis unreachable, payout tasks will not be queued", zap.Error(err))
	default:
		zapLog.Info("[Redis] Connected to Redis")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})

	return rdb, nil
}
