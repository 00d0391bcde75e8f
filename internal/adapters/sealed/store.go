// Package sealed encrypts session values before they reach durable storage.
package sealed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arco-rh/arco-client/internal/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

// Store wraps a KeyValueStore and seals every value it writes. Keys stay in clear
// text so existing tooling can still find them.
type Store struct {
	inner  ports.KeyValueStore
	cipher *Cipher
	logger *slog.Logger
}

// Options groups dependencies for Store.
type Options struct {
	Inner  ports.KeyValueStore // Required
	Cipher *Cipher             // Required
	Logger *slog.Logger        // Optional: structured logger
}

// NewStore constructs a sealing store.
func NewStore(opts Options) *Store {
	if opts.Inner == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("inner KeyValueStore is required")
	}
	if opts.Cipher == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("Cipher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{inner: opts.Inner, cipher: opts.Cipher, logger: logger.With("component", "sealed_store")}
}

// Get opens the stored value. Values written before encryption was enabled are
// returned unchanged and rewritten sealed on the next Set.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return raw, ok, err
	}

	plain, err := s.cipher.Open(raw)
	switch {
	case err == nil:
		return plain, true, nil
	case errors.Is(err, ErrNotSealed):
		s.logger.WarnContext(ctx, "reading unsealed value", "key", key)
		return raw, true, nil
	default:
		return "", false, fmt.Errorf("open %s: %w", key, err)
	}
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	sealed, err := s.cipher.Seal(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
