package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

// RedisOptions configures the Redis ledger
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisLedger keeps records as JSON in a hash and their order in a list
type RedisLedger struct {
	rdb      *redis.Client
	logger   *zap.Logger
	hashKey  string
	orderKey string
}

// NewRedisLedger connects to Redis
func NewRedisLedger(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisLedger, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisLedgerFromClient(rdb, opts.KeyPrefix, logger), nil
}

// NewRedisLedgerFromClient wraps an existing client
func NewRedisLedgerFromClient(rdb *redis.Client, keyPrefix string, logger *zap.Logger) *RedisLedger {
	if keyPrefix == "" {
		keyPrefix = "invoice-printer:ledger"
	}
	return &RedisLedger{
		rdb:      rdb,
		logger:   logger,
		hashKey:  keyPrefix + ":records",
		orderKey: keyPrefix + ":order",
	}
}

// Load returns the records in list order
func (l *RedisLedger) Load(ctx context.Context) ([]core.AttachmentRecord, error) {
	ids, err := l.rdb.LRange(ctx, l.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger order: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := l.rdb.HGetAll(ctx, l.hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger records: %w", err)
	}

	records := make([]core.AttachmentRecord, 0, len(ids))
	for _, id := range ids {
		raw, ok := values[id]
		if !ok {
			return nil, fmt.Errorf("%w: attachment %s listed but not stored", core.ErrLedgerCorrupt, id)
		}
		var rec core.AttachmentRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: attachment %s: %v", core.ErrLedgerCorrupt, id, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save rewrites the order list and adds records not stored yet, atomically.
func (l *RedisLedger) Save(ctx context.Context, records []core.AttachmentRecord) error {
	ids := make([]interface{}, 0, len(records))
	encoded := make(map[string][]byte, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode ledger record %s: %w", rec.AttachmentID, err)
		}
		ids = append(ids, rec.AttachmentID)
		encoded[rec.AttachmentID] = data
	}

	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, l.orderKey)
		if len(ids) > 0 {
			pipe.RPush(ctx, l.orderKey, ids...)
		}
		for id, data := range encoded {
			pipe.HSetNX(ctx, l.hashKey, id, data)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	l.logger.Debug("Ledger saved", zap.String("key", l.hashKey), zap.Int("records", len(records)))
	return nil
}

// Close closes the Redis client
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
