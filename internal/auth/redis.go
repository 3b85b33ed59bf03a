package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/btraven00/phishguard/internal/config"
)

// stringGetter is the slice of the redis client used here.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis reads the current token from a key kept fresh by a shared sign-in
// agent. The key's TTL is the credential lifetime.
type Redis struct {
	client stringGetter
	closer func() error
	now    func() time.Time
	key    string
}

// NewRedis connects lazily to the configured Redis server.
func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Redis{client: client, closer: client.Close, key: cfg.Key, now: time.Now}
}

// Token implements Provider.
func (r *Redis) Token(ctx context.Context) (string, bool, error) {
	tok, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("read token from redis key %q: %w", r.key, err)
	}

	tok = strings.TrimSpace(tok)
	if tok == "" || expired(tok, r.now()) {
		return "", false, nil
	}

	return tok, true, nil
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer()
}
