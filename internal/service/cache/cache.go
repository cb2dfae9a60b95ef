// Package cache stores lookup results of the external services. Values are
// kept as JSON so both backends behave the same way.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"TripBot/internal/lib/sl"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
}

type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, time.Hour)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) bool {
	v, ok := m.c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(v.([]byte), dst) == nil
}

func (m *Memory) Set(_ context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.c.Set(key, data, gocache.DefaultExpiration)
}

type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func NewRedis(rdb *redis.Client, ttl time.Duration, prefix string, log *slog.Logger) *Redis {
	return &Redis{
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
		log:    log.With(sl.Module("cache.redis")),
	}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) bool {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn("get", slog.String("key", key), sl.Err(err))
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (r *Redis) Set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err = r.rdb.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.log.Warn("set", slog.String("key", key), sl.Err(err))
	}
}
