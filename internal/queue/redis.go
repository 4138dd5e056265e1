package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps ready envelopes in a list and delayed ones in a sorted
// set scored by their due time in unix milliseconds.
type RedisBackend struct {
	client  *redis.Client
	key     string
	delayed string
	poll    time.Duration
}

// NewRedisBackend connects to addr and pings it.
func NewRedisBackend(ctx context.Context, addr, key string) (*RedisBackend, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisBackendFromClient(client, key), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key, delayed: key + ":delayed", poll: time.Second}
}

func (b *RedisBackend) Push(ctx context.Context, env Envelope, delay time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if delay <= 0 {
		return b.client.LPush(ctx, b.key, data).Err()
	}
	due := time.Now().Add(delay).UnixMilli()
	return b.client.ZAdd(ctx, b.delayed, redis.Z{Score: float64(due), Member: data}).Err()
}

// promote moves due delayed envelopes onto the ready list. ZRem guards
// against two workers promoting the same member.
func (b *RedisBackend) promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := b.client.ZRangeByScore(ctx, b.delayed, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := b.client.ZRem(ctx, b.delayed, member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := b.client.LPush(ctx, b.key, member).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (b *RedisBackend) TryPop(ctx context.Context) (Envelope, error) {
	if err := b.promote(ctx); err != nil {
		return Envelope{}, err
	}
	data, err := b.client.RPop(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Envelope{}, ErrEmpty
	}
	if err != nil {
		return Envelope{}, err
	}
	return decodeEnvelope(data)
}

func (b *RedisBackend) Pop(ctx context.Context) (Envelope, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Envelope{}, err
		}
		if err := b.promote(ctx); err != nil {
			return Envelope{}, err
		}
		res, err := b.client.BRPop(ctx, b.poll, b.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Envelope{}, err
		}
		// res is [key, value].
		return decodeEnvelope([]byte(res[1]))
	}
}

// Close closes the client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	return env, nil
}
