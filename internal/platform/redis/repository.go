package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"popupforge/internal/popup"
)

const (
	activeKey = "popups:active" // ZSET score=priority rank, member=id
	warmKey   = "popups:warm"   // present while the active index is trusted
	genKey    = "popups:gen"    // bumped by every write; guards refills
)

func metaKey(id string) string {
	return fmt.Sprintf("popup:%s:meta", id)
}

// Repository caches active messages in Redis for queue building. Cached
// copies carry counters as of their last save; analytics read the durable store.
type Repository struct {
	rdb      *redis.Client
	fallback popup.Catalog
	ttl      time.Duration
	logger   *zap.Logger
}

var (
	_ popup.Catalog = (*Repository)(nil)
	_ popup.Cache   = (*Repository)(nil)
)

func NewRepository(rdb *redis.Client, fallback popup.Catalog, ttl time.Duration, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Repository{rdb: rdb, fallback: fallback, ttl: ttl, logger: logger}
}

// ActiveMessages serves the active index from Redis. A cold, inconsistent or
// unreachable cache falls back to the durable store; store errors are returned.
func (r *Repository) ActiveMessages(ctx context.Context) ([]*popup.Message, error) {
	list, err := r.cached(ctx)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, errCacheMiss) {
		r.logger.Warn("redis read failed, using store", zap.Error(err))
	}

	// Read the generation before the store so a write landing after the
	// store read invalidates this refill.
	gen, genErr := r.generation(ctx)

	list, err = r.fallback.ActiveMessages(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return list, nil
	}
	switch err := r.warm(ctx, list, gen); {
	case errors.Is(err, errStaleRefill):
		r.logger.Debug("cache changed during refill, skipping warm")
	case err != nil:
		r.logger.Warn("failed to warm redis cache", zap.Error(err))
	}
	return list, nil
}

var (
	errCacheMiss   = errors.New("cache miss")
	errStaleRefill = errors.New("stale refill")
)

func (r *Repository) generation(ctx context.Context) (int64, error) {
	gen, err := r.rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Repository) cached(ctx context.Context) ([]*popup.Message, error) {
	n, err := r.rdb.Exists(ctx, warmKey).Result()
	if err != nil {
		return nil, fmt.Errorf("check warm marker: %w", err)
	}
	if n == 0 {
		return nil, errCacheMiss
	}

	// ZREVRANGE 0 -1: every active id, highest priority first
	ids, err := r.rdb.ZRevRange(ctx, activeKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active messages: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, metaKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to exec pipeline metadata: %w", err)
	}

	result := make([]*popup.Message, 0, len(ids))
	for i, cmd := range cmds {
		val, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			// Index and metadata disagree; treat as cold rather than drop a message.
			r.logger.Debug("active id without metadata", zap.String("message_id", ids[i]))
			return nil, errCacheMiss
		}
		if err != nil {
			return nil, err
		}
		var m popup.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return nil, fmt.Errorf("decode cached message %s: %w", ids[i], err)
		}
		result = append(result, &m)
	}
	return result, nil
}

// warm rebuilds the active index from list and marks it trusted for ttl.
// It gives up with errStaleRefill when any write bumped the generation
// since gen was read.
func (r *Repository) warm(ctx context.Context, list []*popup.Message, gen int64) error {
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleRefill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, activeKey)
			for _, m := range list {
				if err := r.queueSave(ctx, pipe, m); err != nil {
					return err
				}
			}
			pipe.Set(ctx, warmKey, time.Now().UTC().Format(time.RFC3339), r.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleRefill
	}
	return err
}

// SaveMessage syncs metadata to Redis and updates the active index.
func (r *Repository) SaveMessage(ctx context.Context, m *popup.Message) error {
	pipe := r.rdb.TxPipeline()
	if err := r.queueSave(ctx, pipe, m); err != nil {
		return err
	}
	pipe.Incr(ctx, genKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repository) queueSave(ctx context.Context, pipe redis.Pipeliner, m *popup.Message) error {
	if m.Status != popup.StatusActive {
		pipe.ZRem(ctx, activeKey, m.ID)
		pipe.Del(ctx, metaKey(m.ID))
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", m.ID, err)
	}
	pipe.Set(ctx, metaKey(m.ID), payload, 0)
	pipe.ZAdd(ctx, activeKey, redis.Z{Score: float64(m.Priority.Rank()), Member: m.ID})
	return nil
}

func (r *Repository) RemoveMessage(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.ZRem(ctx, activeKey, id)
	pipe.Del(ctx, metaKey(id))
	pipe.Incr(ctx, genKey)
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops the warm marker so the next read reloads from the store.
func (r *Repository) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, warmKey).Err()
}
