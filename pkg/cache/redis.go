package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "deskdir:extract:"

// Redis is a cache shared between server instances. Errors are logged and
// treated as misses; the cache never fails an extraction.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewRedis connects to url (redis://...) and verifies the connection.
func NewRedis(ctx context.Context, url string, ttl time.Duration, log *zap.SugaredLogger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Redis{client: client, ttl: ttl, log: log}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]string, bool) {
	b, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.Warnw("redis cache get failed", "key", key, "error", err)
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		r.log.Warnw("redis cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return ids, true
}

func (r *Redis) Set(ctx context.Context, key string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		r.log.Warnw("redis cache set failed", "key", key, "error", err)
	}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
