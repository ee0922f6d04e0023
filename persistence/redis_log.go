package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/accord/types"
)

// RedisLog is the Redis-backed Log implementation for distributed
// deployments. Message history lives in one list per negotiation and
// outcomes in a single archive list.
type RedisLog struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewRedisLog connects to Redis and verifies the connection.
func NewRedisLog(cfg RedisConfig, logger *zap.Logger) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.Addr, err)
	}

	return &RedisLog{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger.With(zap.String("component", "redis_log")),
	}, nil
}

func (l *RedisLog) messagesKey(negotiationID string) string {
	return l.prefix + "messages:" + negotiationID
}

func (l *RedisLog) outcomesKey() string {
	return l.prefix + "outcomes"
}

// Close closes the Redis connection.
func (l *RedisLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.client.Close()
}

// Ping checks if the log is healthy.
func (l *RedisLog) Ping(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}
	return l.client.Ping(ctx).Err()
}

// AppendMessage persists one message of a negotiation's history.
func (l *RedisLog) AppendMessage(ctx context.Context, negotiationID string, msg types.Message) error {
	if negotiationID == "" {
		return ErrInvalidInput
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return l.client.RPush(ctx, l.messagesKey(negotiationID), data).Err()
}

// Messages replays a negotiation's history in append order.
func (l *RedisLog) Messages(ctx context.Context, negotiationID string) ([]types.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrStoreClosed
	}

	raw, err := l.client.LRange(ctx, l.messagesKey(negotiationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	out := make([]types.Message, 0, len(raw))
	for _, item := range raw {
		var msg types.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			l.logger.Warn("skipping corrupt message entry",
				zap.String("negotiation_id", negotiationID),
				zap.Error(err))
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// SaveOutcome archives a completed negotiation's outcome.
func (l *RedisLog) SaveOutcome(ctx context.Context, outcome *types.Outcome) error {
	if outcome == nil {
		return ErrInvalidInput
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	return l.client.RPush(ctx, l.outcomesKey(), data).Err()
}

// Outcomes returns archived outcomes, oldest first.
func (l *RedisLog) Outcomes(ctx context.Context, limit int) ([]*types.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrStoreClosed
	}

	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}
	raw, err := l.client.LRange(ctx, l.outcomesKey(), 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}

	out := make([]*types.Outcome, 0, len(raw))
	for _, item := range raw {
		var o types.Outcome
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			l.logger.Warn("skipping corrupt outcome entry", zap.Error(err))
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

// Ensure RedisLog implements Log.
var _ Log = (*RedisLog)(nil)
