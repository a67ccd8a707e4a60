package redis

import (
	"context"
	"fmt"
	"roam-bridge/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient 파라미터 트리용 Redis 클라이언트 생성
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.Timeout,
	})

	// 연결 테스트
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s:%s failed: %v", cfg.RedisHost, cfg.RedisPort, err)
	}

	return client, nil
}
