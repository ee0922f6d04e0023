// Package persistence provides optional durable storage for negotiation
// message history and completed outcomes.
//
// The engine works without a log; when one is configured, message appends
// and outcome archival are best-effort and never block protocol progress.
//
// Supported backends:
// - Memory: for development and testing (default)
// - Redis: for distributed deployments
// - SQLite: for single-node durable archives
package persistence

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/accord/types"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

// Log is the append-only store for negotiation messages and outcomes.
type Log interface {
	// Close closes the log and releases resources.
	Close() error

	// Ping checks if the log is healthy.
	Ping(ctx context.Context) error

	// AppendMessage persists one message of a negotiation's history.
	AppendMessage(ctx context.Context, negotiationID string, msg types.Message) error

	// Messages replays the full message history of a negotiation in
	// append order.
	Messages(ctx context.Context, negotiationID string) ([]types.Message, error)

	// SaveOutcome archives a completed negotiation's outcome.
	SaveOutcome(ctx context.Context, outcome *types.Outcome) error

	// Outcomes returns archived outcomes, oldest first, up to limit
	// (0 means no limit).
	Outcomes(ctx context.Context, limit int) ([]*types.Outcome, error)
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `json:"addr" yaml:"addr"`

	// Password is the Redis password (optional).
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number.
	DB int `json:"db" yaml:"db"`

	// PoolSize is the connection pool size.
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// KeyPrefix is the prefix for all Redis keys.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
}

// Config is the base configuration for all log implementations.
type Config struct {
	// Type is the storage backend type.
	Type StoreType `json:"type" yaml:"type"`

	// Path is the database file path for the SQLite backend.
	Path string `json:"path" yaml:"path"`

	// Redis configuration (only used when Type is "redis").
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// DefaultConfig returns the default log configuration.
func DefaultConfig() Config {
	return Config{
		Type: StoreTypeMemory,
		Path: "./data/accord.db",
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    10,
			KeyPrefix:   "accord:",
			DialTimeout: 5 * time.Second,
		},
	}
}

// NewLog creates a log for the configured backend.
func NewLog(cfg Config, logger *zap.Logger) (Log, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Type {
	case StoreTypeRedis:
		return NewRedisLog(cfg.Redis, logger)
	case StoreTypeSQLite:
		return NewSQLiteLog(cfg.Path, logger)
	default:
		return NewMemoryLog(), nil
	}
}
