package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"pastebox/cfg"
	"pastebox/pkg/domain"
)

const keyPrefix = "paste:"

// redisClient is the slice of redis.Client the store actually uses, kept
// narrow so tests can substitute an in-process fake.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore delegates storage and TTL enforcement to redis. Expiry is
// enforced service-side via SET with expiration, so a missing key already
// covers the expired case. Enumeration is unsupported at this layer.
type RedisStore struct {
	client  redisClient
	timeout time.Duration
}

func NewRedisStore(c *cfg.Cfg) (*RedisStore, error) {
	opt, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.PoolSize = 20
	opt.MinIdleConns = 4
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond
	if c.RedisUsername != "" {
		opt.Username = c.RedisUsername
	}
	if c.RedisPassword.Value() != "" {
		opt.Password = c.RedisPassword.Value()
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &RedisStore{client: client, timeout: c.RedisTimeout}, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Paste, error) {
	id = SanitizeID(id)
	if id == "" {
		return nil, domain.ErrPasteNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrPasteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get paste")
	}
	var p domain.Paste
	if err := json.Unmarshal(data, &p); err != nil {
		// corrupt value behaves as if it never existed
		return nil, domain.ErrPasteNotFound
	}
	return &p, nil
}

func (r *RedisStore) Set(ctx context.Context, p *domain.Paste) error {
	id := SanitizeID(p.ID)
	if id == "" || id != p.ID {
		return domain.ErrInvalidRequest
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal paste")
	}
	var ttl time.Duration
	if p.ExpiresAt != nil {
		secs := ttlSeconds(*p.ExpiresAt, time.Now().UnixMilli())
		if secs <= 0 {
			// expiry passed between computation and write; expire on the
			// next second instead of writing an immortal record
			secs = 1
		}
		ttl = time.Duration(secs) * time.Second
	}
	return errors.Wrap(r.client.Set(ctx, keyPrefix+id, data, ttl).Err(), "set paste")
}

// ttlSeconds is the remaining lifetime rounded up to whole seconds.
func ttlSeconds(expiresAt, nowMillis int64) int64 {
	return (expiresAt - nowMillis + 999) / 1000
}

func (r *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	id = SanitizeID(id)
	if id == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, errors.Wrap(err, "delete paste")
	}
	return n > 0, nil
}

// ListAll is unsupported: redis exposes no efficient key enumeration at this
// layer, so listing under the remote backend is always empty.
func (r *RedisStore) ListAll(ctx context.Context) ([]*domain.Paste, error) {
	return []*domain.Paste{}, nil
}

func (r *RedisStore) Mode() Mode { return ModeRedis }

func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
