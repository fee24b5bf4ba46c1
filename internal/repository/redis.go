package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/betmesh/stakegate/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: rdb}, nil
}

// Implement service.ExposureRepo on Redis. Keys are day-scoped and expire
// on their own, so ResetDaily has nothing to do.

func (r *RedisClient) GetDailyStake(ctx context.Context, accountID string) (float64, error) {
	key := stakeKey(accountID)
	val, err := r.Client.Get(ctx, key).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (r *RedisClient) AddDailyStake(ctx context.Context, accountID string, amount float64) error {
	key := stakeKey(accountID)
	pipe := r.Client.Pipeline()
	pipe.IncrByFloat(ctx, key, amount)
	// 2 days is safely past the day rollover.
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisClient) ResetDaily(ctx context.Context) error {
	return nil
}

func stakeKey(accountID string) string {
	return fmt.Sprintf("stake:%s:%s", accountID, time.Now().UTC().Format("2006-01-02"))
}
