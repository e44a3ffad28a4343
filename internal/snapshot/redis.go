// redis.go — Redis snapshot backend.
// Lets parallel CI workers start from the same warm snapshot instead of
// each carrying its own file. Each record lives under one key beneath a
// common prefix; Load scans the prefix with cursor pagination.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisScanBatch = 100

// RedisStore persists records as individual JSON values under prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. prefix namespaces this cache
// from anything else on the same instance; "testcache:" when empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "testcache:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Load scans all keys under the prefix and decodes each record.
func (r *RedisStore) Load(ctx context.Context) (map[string]Record, error) {
	records := map[string]Record{}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", redisScanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("could not scan snapshot keys: %w", err)
		}
		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				continue // expired between scan and get
			} else if err != nil {
				return nil, fmt.Errorf("could not read snapshot key %q: %w", key, err)
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil, fmt.Errorf("could not parse snapshot key %q: %w", key, err)
			}
			records[strings.TrimPrefix(key, r.prefix)] = rec
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return records, nil
}

// Save clears the prefix and writes every record.
func (r *RedisStore) Save(ctx context.Context, records map[string]Record) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	for key, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("could not encode snapshot key %q: %w", key, err)
		}
		pipe.Set(ctx, r.prefix+key, data, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("could not scan snapshot keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("could not delete snapshot keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
