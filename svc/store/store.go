package store

import (
	"context"
	"sort"

	"pastebox/cfg"
	"pastebox/pkg/domain"
)

type Mode string

const (
	ModeRedis  Mode = "redis"
	ModeFile   Mode = "file"
	ModeMemory Mode = "memory"
)

// Store is the uniform contract over the three backends. Exactly one
// implementation is selected per process; mixing backends for the same
// logical store is not supported.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Paste, error)
	Set(ctx context.Context, p *domain.Paste) error
	Delete(ctx context.Context, id string) (bool, error)
	ListAll(ctx context.Context) ([]*domain.Paste, error)
	Mode() Mode
	Ping(ctx context.Context) error
	Close() error
}

// Select picks the backend for the lifetime of the process. An explicit
// STORAGE_BACKEND override wins; otherwise the presence of both redis
// credentials enables the remote backend; otherwise the file backend is the
// default (durable across restarts without external services).
func Select(c *cfg.Cfg) (Store, error) {
	switch Mode(c.StorageBackend) {
	case ModeRedis:
		return NewRedisStore(c)
	case ModeFile:
		return NewFileStore(c.DataDir), nil
	case ModeMemory:
		return NewMemStore(), nil
	}
	if c.RedisURL != "" && c.RedisPassword.Value() != "" {
		return NewRedisStore(c)
	}
	return NewFileStore(c.DataDir), nil
}

func sortNewestFirst(pastes []*domain.Paste) {
	sort.Slice(pastes, func(i, j int) bool {
		return pastes[i].CreatedAt > pastes[j].CreatedAt
	})
}
