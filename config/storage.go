package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StorageBackend names the KeyValueStore implementation holding the session.
type StorageBackend string

const (
	// StorageBackendSQLite keeps the session in a local SQLite file.
	StorageBackendSQLite StorageBackend = "sqlite"
	// StorageBackendRedis keeps the session in Redis, shared between processes.
	StorageBackendRedis StorageBackend = "redis"
	// StorageBackendMemory keeps the session for the lifetime of the process only.
	StorageBackendMemory StorageBackend = "memory"
)

// ValidStorageBackends returns all valid storage backend names.
func ValidStorageBackends() []StorageBackend {
	return []StorageBackend{
		StorageBackendSQLite,
		StorageBackendRedis,
		StorageBackendMemory,
	}
}

// ParseStorageBackend parses a backend name, ignoring case and surrounding space.
func ParseStorageBackend(s string) (StorageBackend, error) {
	backend := StorageBackend(strings.ToLower(strings.TrimSpace(s)))
	switch backend {
	case StorageBackendSQLite, StorageBackendRedis, StorageBackendMemory:
		return backend, nil
	case "":
		return "", errors.New("storage backend must be specified (valid options: sqlite, redis, memory)")
	default:
		return "", fmt.Errorf("invalid storage backend: %q (valid options: sqlite, redis, memory)", s)
	}
}

// StorageConfig selects where the session lives.
type StorageConfig struct {
	Backend    string `env:"BACKEND"     envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"arco-session.db"`

	// EncryptionKey seals stored values with AES-GCM when set. A 64-character hex
	// string is used as the raw key; anything else is hashed.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
}

// Sanitize normalises the backend name and the SQLite path.
func (c *StorageConfig) Sanitize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.SQLitePath = strings.TrimSpace(c.SQLitePath)
	if c.SQLitePath == "" {
		c.SQLitePath = "arco-session.db"
	}
}

// SelectedBackend returns the parsed backend.
func (c *StorageConfig) SelectedBackend() (StorageBackend, error) {
	return ParseStorageBackend(c.Backend)
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string        `env:"URI"                  envDefault:"localhost:6379"`
	Password           string        `env:"PASSWORD"             envDefault:""`
	DB                 int           `env:"DB"                   envDefault:"0"`
	Prefix             string        `env:"PREFIX"               envDefault:"arco:"`
	TTL                time.Duration `env:"TTL"                  envDefault:"0"`
	SentinelNodes      []string      `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string        `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string        `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool          `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string      `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool          `env:"USE_CLUSTER"          envDefault:"false"`
}

// Sanitize applies guardrails to Redis settings.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.DB < 0 {
		c.DB = 0
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
}
