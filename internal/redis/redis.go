package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"
)

// DBManager is a byte cache backed by Redis. It satisfies the catalog
// client's Cache interface.
type DBManager struct {
	client *redisClient.Client
	prefix string
}

// NewDBManager connects to a TLS Redis endpoint with the default user.
func NewDBManager(ctx context.Context, addr, password string) (*DBManager, error) {
	opt, err := redisClient.ParseURL(fmt.Sprintf("rediss://default:%s@%s", password, addr))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return connect(ctx, redisClient.NewClient(opt))
}

// NewFromURL connects using a full redis:// or rediss:// URL.
func NewFromURL(ctx context.Context, rawURL string) (*DBManager, error) {
	opt, err := redisClient.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return connect(ctx, redisClient.NewClient(opt))
}

func connect(ctx context.Context, client *redisClient.Client) (*DBManager, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &DBManager{client: client, prefix: "uta:"}, nil
}

// Get returns the cached value, or nil when key is absent.
func (redis *DBManager) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := redis.client.Get(ctx, redis.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// Set stores value under key. A zero ttl keeps it forever.
func (redis *DBManager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := redis.client.Set(ctx, redis.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// IncrementExportCount bumps how many times a song was exported.
func (redis *DBManager) IncrementExportCount(ctx context.Context, songID string) error {
	err := redis.client.HIncrBy(ctx, redis.prefix+"exports", songID, 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment export count for song ID %s: %v", songID, err)
	}
	return nil
}

// ExportCount returns how many times a song was exported.
func (redis *DBManager) ExportCount(ctx context.Context, songID string) (int, error) {
	n, err := redis.client.HGet(ctx, redis.prefix+"exports", songID).Int()
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (redis *DBManager) Close() error {
	return redis.client.Close()
}
