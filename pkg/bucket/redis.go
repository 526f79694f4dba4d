package bucket

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Redis key layout:
//
//	swcache:buckets            SET of bucket names
//	swcache:idx:<bucket>       SET of entry keys within a bucket
//	swcache:<bucket>:<key>     JSON-encoded Entry
const (
	redisBucketSet  = "swcache:buckets"
	redisIndexKey   = "swcache:idx:"
	redisEntryScope = "swcache:"
)

// Redis is a Store backed by a Redis server, for deployments where
// several gateway instances share one cache.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{client: client}
}

func redisEntryKey(bucket, key string) string {
	return redisEntryScope + bucket + ":" + key
}

// Get retrieves an entry by (bucket, key).
// Returns ErrMiss if the key doesn't exist.
func (r *Redis) Get(ctx context.Context, bucket, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, redisEntryKey(bucket, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			Misses.Inc()
			return nil, ErrMiss
		}
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	Hits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Put stores an entry and registers it in the bucket index.
func (r *Redis) Put(ctx context.Context, bucket, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("bucket entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal bucket entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisEntryKey(bucket, key), data, 0)
	pipe.SAdd(ctx, redisIndexKey+bucket, key)
	pipe.SAdd(ctx, redisBucketSet, bucket)
	if _, err := pipe.Exec(ctx); err != nil {
		Errors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Delete removes one entry and its index membership.
func (r *Redis) Delete(ctx context.Context, bucket, key string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, redisEntryKey(bucket, key))
	pipe.SRem(ctx, redisIndexKey+bucket, key)
	if _, err := pipe.Exec(ctx); err != nil {
		Errors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Keys enumerates the keys of one bucket in sorted order.
func (r *Redis) Keys(ctx context.Context, bucket string) ([]string, error) {
	keys, err := r.client.SMembers(ctx, redisIndexKey+bucket).Result()
	if err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Buckets enumerates all known bucket names in sorted order.
func (r *Redis) Buckets(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, redisBucketSet).Result()
	if err != nil {
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Drop removes a bucket, its index, and every entry in it.
func (r *Redis) Drop(ctx context.Context, bucket string) error {
	keys, err := r.client.SMembers(ctx, redisIndexKey+bucket).Result()
	if err != nil {
		Errors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis smembers: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, redisEntryKey(bucket, key))
	}
	pipe.Del(ctx, redisIndexKey+bucket)
	pipe.SRem(ctx, redisBucketSet, bucket)
	if _, err := pipe.Exec(ctx); err != nil {
		Errors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis drop: %w", err)
	}
	return nil
}
