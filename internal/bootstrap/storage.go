package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/arco-rh/arco-client/config"
	"github.com/arco-rh/arco-client/internal/adapters/memory"
	redisstore "github.com/arco-rh/arco-client/internal/adapters/redis"
	"github.com/arco-rh/arco-client/internal/adapters/sealed"
	"github.com/arco-rh/arco-client/internal/adapters/sqlite"
	"github.com/arco-rh/arco-client/internal/ports"
	"github.com/redis/go-redis/v9"
)

// StorageDeps contains configuration for the session storage backend.
type StorageDeps struct {
	Storage config.StorageConfig
	Redis   config.RedisConfig
	Logger  *slog.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// BuildStorage opens the configured KeyValueStore, sealing values when an
// encryption key is configured. The returned closer releases the backend's
// connections and is never nil.
//
//nolint:ireturn // the backend is chosen at runtime.
func BuildStorage(ctx context.Context, deps StorageDeps) (ports.KeyValueStore, io.Closer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, closer, err := openBackend(ctx, deps, logger)
	if err != nil {
		return nil, nil, err
	}
	if deps.Storage.EncryptionKey == "" {
		return store, closer, nil
	}

	c, err := sealed.NewCipher(deps.Storage.EncryptionKey)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("storage encryption: %w", err), closer.Close())
	}
	return sealed.NewStore(sealed.Options{Inner: store, Cipher: c, Logger: logger}), closer, nil
}

//nolint:ireturn // the backend is chosen at runtime.
func openBackend(ctx context.Context, deps StorageDeps, logger *slog.Logger) (ports.KeyValueStore, io.Closer, error) {
	backend, err := deps.Storage.SelectedBackend()
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case config.StorageBackendSQLite:
		store, openErr := sqlite.Open(ctx, deps.Storage.SQLitePath)
		if openErr != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", openErr)
		}
		logger.InfoContext(ctx, "session storage ready", "backend", backend, "path", deps.Storage.SQLitePath)
		return store, store, nil
	case config.StorageBackendRedis:
		client, connErr := ConnectRedis(ctx, deps.Redis, logger)
		if connErr != nil {
			return nil, nil, connErr
		}
		store := redisstore.NewStoreWithOptions(client, redisstore.Options{
			Prefix: deps.Redis.Prefix,
			TTL:    deps.Redis.TTL,
		})
		logger.InfoContext(ctx, "session storage ready", "backend", backend, "prefix", deps.Redis.Prefix)
		return store, client, nil
	default:
		logger.WarnContext(ctx, "session storage is in-memory; sessions end with the process")
		return memory.NewStore(), nopCloser{}, nil
	}
}

// ConnectRedis establishes a connection to Redis.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	var (
		client   redis.UniversalClient
		addrDesc string
		err      error
	)

	switch {
	case cfg.UseCluster:
		client, addrDesc, err = newClusterClient(cfg)
	case cfg.UseSentinel:
		client, addrDesc, err = newSentinelClient(cfg)
	default:
		client, addrDesc, err = newDirectClient(cfg)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "addr", redactAddr(addrDesc))
	}

	return client, nil
}

// redactAddr strips credentials from a Redis address before it is logged.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	addrs := normalizeAddrs(cfg.ClusterNodes)
	password := cfg.Password
	username := ""
	var tlsConfig *tls.Config

	if len(addrs) == 0 {
		addr, parsedUsername, parsedPassword, parsedTLS, err := clusterFallbackFromURI(cfg.URI, password)
		if err != nil {
			return nil, "", err
		}

		if addr != "" {
			addrs = []string{addr}
			username = parsedUsername
			password = parsedPassword
			tlsConfig = parsedTLS
		}
	}

	if len(addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}

	clusterOpts := &redis.ClusterOptions{
		Addrs:     addrs,
		Username:  username,
		Password:  password,
		TLSConfig: tlsConfig,
	}
	return redis.NewClusterClient(clusterOpts), "cluster:" + strings.Join(addrs, ","), nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	nodes := normalizeAddrs(cfg.SentinelNodes)
	if len(nodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}

	opts := &redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    nodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
		DB:               cfg.DB,
	}
	return redis.NewFailoverClient(opts), "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}

	if isRedisURL(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), uri, nil
	}

	opts := &redis.Options{
		Addr:     uri,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	return redis.NewClient(opts), uri, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func clusterFallbackFromURI(uri, defaultPassword string) (string, string, string, *tls.Config, error) {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return "", "", defaultPassword, nil, nil
	}

	if !isRedisURL(trimmed) {
		return trimmed, "", defaultPassword, nil, nil
	}

	opt, err := redis.ParseURL(trimmed)
	if err != nil {
		return "", "", defaultPassword, nil, fmt.Errorf("parse redis cluster url: %w", err)
	}

	password := defaultPassword
	if opt.Password != "" {
		password = opt.Password
	}

	return opt.Addr, opt.Username, password, opt.TLSConfig, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
