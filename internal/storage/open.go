package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Drivers accepted by Open
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Options selects and configures a KV backend
type Options struct {
	Driver      string
	Dir         string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// Open builds the KV backend named by opts.Driver. The returned close
// function releases the backend's connections.
func Open(ctx context.Context, opts Options) (KV, func() error, error) {
	noop := func() error { return nil }
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryKV(), noop, nil
	case DriverFile:
		kv, err := NewFileKV(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, noop, nil
	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr, DB: opts.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisKV(rdb, opts.RedisPrefix), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
