package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/peptiva/backend/internal/domain/shared"
)

// RedisCheckoutStore implements CheckoutRecordStore using Redis.
// This is suitable for distributed deployments where multiple instances
// need to replay each other's checkout responses.
type RedisCheckoutStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCheckoutStore creates a new Redis-based checkout record store
func NewRedisCheckoutStore(cfg RedisConfig) (*RedisCheckoutStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCheckoutStore{
		client:    client,
		keyPrefix: "checkout:idempotency:",
	}, nil
}

// NewRedisCheckoutStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCheckoutStoreWithClient(client *redis.Client, keyPrefix string) *RedisCheckoutStore {
	if keyPrefix == "" {
		keyPrefix = "checkout:idempotency:"
	}
	return &RedisCheckoutStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Put stores a checkout record with a TTL. SET overwrites an existing record
// under the same key, matching the store contract.
func (s *RedisCheckoutStore) Put(ctx context.Context, record shared.CheckoutRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode checkout record: %w", err)
	}

	key := s.keyPrefix + record.IdempotencyKey
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout record: %w", err)
	}
	return nil
}

// Get returns the record for a key. Redis expiry handles TTL, so a missing
// key means absent or expired.
func (s *RedisCheckoutStore) Get(ctx context.Context, idempotencyKey string) (shared.CheckoutRecord, bool, error) {
	key := s.keyPrefix + idempotencyKey

	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return shared.CheckoutRecord{}, false, nil
	}
	if err != nil {
		return shared.CheckoutRecord{}, false, fmt.Errorf("failed to load checkout record: %w", err)
	}

	var record shared.CheckoutRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return shared.CheckoutRecord{}, false, fmt.Errorf("failed to decode checkout record: %w", err)
	}
	return record, true, nil
}

// Delete removes the record for a key. Deleting an absent key is not an error.
func (s *RedisCheckoutStore) Delete(ctx context.Context, idempotencyKey string) error {
	if err := s.client.Del(ctx, s.keyPrefix+idempotencyKey).Err(); err != nil {
		return fmt.Errorf("failed to delete checkout record: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisCheckoutStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisCheckoutStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisCheckoutStore implements CheckoutRecordStore
var _ shared.CheckoutRecordStore = (*RedisCheckoutStore)(nil)
