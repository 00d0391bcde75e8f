// Package redis provides a Redis-backed key/value store so several client
// processes can share one session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arco-rh/arco-client/internal/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.KeyValueStore = (*Store)(nil)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "arco:"

// Store is a Redis-based key/value store.
// A zero TTL keeps keys until they are deleted, matching browser local storage.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Options configures a Store.
type Options struct {
	Prefix string
	TTL    time.Duration
}

// NewStore creates a Redis store with the default prefix and no expiry.
func NewStore(client redis.UniversalClient) *Store {
	return NewStoreWithOptions(client, Options{Prefix: DefaultPrefix})
}

// NewStoreWithOptions creates a Redis store with a custom key prefix and TTL.
func NewStoreWithOptions(client redis.UniversalClient, opts Options) *Store {
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Store{
		client: client,
		prefix: opts.Prefix,
		ttl:    ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
