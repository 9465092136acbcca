// Package cache provides the key/value cache and pub/sub plumbing used in
// front of catalog reads and for analytics fan-out.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Publisher fans JSON messages out to channel subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Subscriber receives raw messages published on a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Broker is a cache that also carries pub/sub.
type Broker interface {
	Client
	Publisher
	Subscriber
}

// Options selects and configures a cache backend.
type Options struct {
	// Driver is "memory" or "redis".
	Driver     string
	MaxEntries int
	Redis      RedisConfig
}

// New builds the backend named by opts.Driver.
func New(ctx context.Context, opts Options) (Broker, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemoryClient(opts.MaxEntries), nil
	case "redis":
		return NewRedisClient(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", opts.Driver)
	}
}

// Key joins key components with ":".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
