// Package cache stores computed results under string keys with an expiry.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Cache is a keyed byte store. Get reports ok=false on a miss or an expired
// entry.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Options configures Open.
type Options struct {
	Backend       string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the cache for opts.Backend. An empty backend means none.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendFile:
		return NewFile(opts.Dir)
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendNone, "":
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend: %s", opts.Backend)
}

// None caches nothing.
type None struct{}

func (None) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (None) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (None) Delete(context.Context, ...string) error { return nil }
func (None) DeletePrefix(context.Context, string) error { return nil }
func (None) Close() error { return nil }
