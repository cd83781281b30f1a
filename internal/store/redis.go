package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "tempo"

// Redis stores records as plain string keys: tempo:{kind}:{key}
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the server at url (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) namespaceKey(kind Kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisPrefix, kind, key)
}

func (r *Redis) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.namespaceKey(kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", kind, key, err)
	}
	return val, nil
}

// Set stores the value without expiration.
func (r *Redis) Set(ctx context.Context, kind Kind, key string, value []byte) error {
	if err := r.client.Set(ctx, r.namespaceKey(kind, key), value, 0).Err(); err != nil {
		return fmt.Errorf("set record %s/%s: %w", kind, key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
