package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisKV implements KeyValueStore on a redigo pool. SetIfAbsent maps to
// SET NX, the conditional-write primitive the duplicate guard needs.
type RedisKV struct {
	pool *redis.Pool
}

// NewRedisKV constructor
func NewRedisKV(pool *redis.Pool) *RedisKV {
	return &RedisKV{pool: pool}
}

func (r *RedisKV) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	cl, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: redis conn: %v", ErrUpstreamUnavailable, err)
	}
	defer cl.Close()

	args := []interface{}{key, value, "NX"}
	if ttl > 0 {
		args = append(args, "PX", ttl.Milliseconds())
	}

	reply, err := cl.Do("SET", args...)
	if err != nil {
		return false, fmt.Errorf("%w: redis SET NX: %v", ErrUpstreamUnavailable, err)
	}
	// nil reply means the key already existed.
	return reply != nil, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cl, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis conn: %v", ErrUpstreamUnavailable, err)
	}
	defer cl.Close()

	data, err := redis.Bytes(cl.Do("GET", key))
	if err != nil {
		if err == redis.ErrNil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: redis GET: %v", ErrUpstreamUnavailable, err)
	}
	return data, true, nil
}

func (r *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	cl, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: redis conn: %v", ErrUpstreamUnavailable, err)
	}
	defer cl.Close()

	exists, err := redis.Bool(cl.Do("EXISTS", key))
	if err != nil {
		return false, fmt.Errorf("%w: redis EXISTS: %v", ErrUpstreamUnavailable, err)
	}
	return exists, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cl, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: redis conn: %v", ErrUpstreamUnavailable, err)
	}
	defer cl.Close()

	args := []interface{}{key, value}
	if ttl > 0 {
		args = append(args, "PX", ttl.Milliseconds())
	}
	if _, err := cl.Do("SET", args...); err != nil {
		return fmt.Errorf("%w: redis SET: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	cl, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: redis conn: %v", ErrUpstreamUnavailable, err)
	}
	defer cl.Close()

	if _, err := cl.Do("DEL", key); err != nil {
		return fmt.Errorf("%w: redis DEL: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
