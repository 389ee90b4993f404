// Package cache is the key-value cache port used for read-through caching
// of rarely changing values.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value with ttl. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Nop is used when no cache backend is configured. Every Get misses.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) (string, error)                        { return "", ErrMiss }
func (Nop) Set(context.Context, string, string, time.Duration) error           { return nil }
func (Nop) SetNX(context.Context, string, string, time.Duration) (bool, error) { return false, nil }
func (Nop) Del(context.Context, ...string) error                               { return nil }
func (Nop) Ping(context.Context) error                                         { return nil }
func (Nop) Close() error                                                       { return nil }
