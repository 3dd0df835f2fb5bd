package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL keeps the preference for one shift.
const DefaultSessionTTL = 12 * time.Hour

// Redis is the session-scoped tier. Keys expire after a sliding TTL that
// every read and write renews.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption customises a Redis tier.
type RedisOption func(*Redis)

// WithTTL sets the sliding expiration. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption { return func(r *Redis) { r.ttl = ttl } }

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption { return func(r *Redis) { r.prefix = prefix } }

// NewRedis connects to addr. The connection is lazy; New's probe is what
// finds out whether the server answers.
func NewRedis(addr, password string, db int, opts ...RedisOption) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: "posview:pref:", ttl: DefaultSessionTTL}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (*Redis) Name() string { return "redis" }

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		v   string
		err error
	)
	if r.ttl > 0 {
		v, err = r.client.GetEx(ctx, r.key(key), r.ttl).Result()
	} else {
		v, err = r.client.Get(ctx, r.key(key)).Result()
	}
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: redis get: %w", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("prefs: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("prefs: redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error { return r.client.Close() }
