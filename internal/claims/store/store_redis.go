package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"coursegate/internal/claims/models"
	"coursegate/pkg/platform/sentinel"
)

var redisSaveConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "coursegate_claims_cache_redis_watch_conflicts_total",
	Help: "Optimistic transaction retries while saving the claims cache slot",
})

const (
	// Redis key prefix for claims cache slots
	claimsSlotKeyPrefix = "claims:slot:"

	maxWatchRetries = 3
)

// RedisStore keeps the cache slot in Redis so several workers serving the
// same device or user agent share one slot.
type RedisStore struct {
	client *redis.Client
	slot   string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisSlot selects the slot key suffix; defaults to DefaultSlot.
func WithRedisSlot(slot string) RedisOption {
	return func(s *RedisStore) {
		if slot != "" {
			s.slot = slot
		}
	}
}

// WithRedisTTL expires the key after ttl. Zero keeps the key until cleared.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed store. The client lifecycle is managed externally.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, slot: DefaultSlot}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key() string {
	return claimsSlotKeyPrefix + s.slot
}

func (s *RedisStore) Load(ctx context.Context) (*models.CacheEntry, error) {
	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("claims cache slot empty: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load claims cache: %w", err)
	}
	return decodeEntry(raw)
}

// Save uses WATCH/MULTI so the monotonic check and the write are atomic
// with respect to other writers of the same slot.
func (s *RedisStore) Save(ctx context.Context, entry *models.CacheEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode claims cache entry: %w", err)
	}
	key := s.key()

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			existing, err := decodeEntry(raw)
			if err != nil {
				return err
			}
			if err := checkMonotonic(existing, entry); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	for range maxWatchRetries {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		redisSaveConflicts.Inc()
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrStaleWrite) {
			return err
		}
		return fmt.Errorf("save claims cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear claims cache: %w", err)
	}
	return nil
}

func decodeEntry(raw []byte) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode claims cache entry: %w", err)
	}
	return &entry, nil
}
