package stash

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// defaultKeyPrefix namespaces stash hashes in a shared Redis instance.
const defaultKeyPrefix = "opsdeck:stash"

// RedisStore is a Redis-backed Store for deployments where the console UI
// and the API server are separate processes. Items live in a single hash
// keyed by item id.
type RedisStore struct {
	client *redis.Client
	key    string
}

// RedisConfig configures a Redis connection.
type RedisConfig struct {
	// Addr is the Redis address, e.g. "localhost:6379".
	Addr string

	// Password is the Redis password, empty for none.
	Password string

	// DB is the Redis database number.
	DB int

	// KeyPrefix overrides the default hash key.
	KeyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	key := cfg.KeyPrefix
	if key == "" {
		key = defaultKeyPrefix
	}
	return &RedisStore{client: client, key: key}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: defaultKeyPrefix}
}

// Add stores an item.
func (s *RedisStore) Add(ctx context.Context, item Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshaling stash item: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, item.ID, data).Err(); err != nil {
		return fmt.Errorf("storing stash item: %w", err)
	}
	return nil
}

// Get retrieves an item by id.
func (s *RedisStore) Get(ctx context.Context, id string) (Item, error) {
	data, err := s.client.HGet(ctx, s.key, id).Result()
	if err == redis.Nil {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("fetching stash item: %w", err)
	}
	var item Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return Item{}, fmt.Errorf("unmarshaling stash item: %w", err)
	}
	return item, nil
}

// Remove deletes an item if present.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("removing stash item: %w", err)
	}
	return nil
}

// List returns all items, oldest first.
func (s *RedisStore) List(ctx context.Context) ([]Item, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing stash items: %w", err)
	}
	items := make([]Item, 0, len(values))
	for _, data := range values {
		var item Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("unmarshaling stash item: %w", err)
		}
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

// Clear empties the holding area.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing stash: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
