package cache

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"pastebox/pkg/domain"
)

// LRU fronts the selected backend with a bounded in-process cache. Hits are
// expiry-checked so a cached entry can never outlive its paste.
type LRU struct {
	c *lru.Cache[string, domain.Paste]
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > 100000 {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, domain.Paste](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(ctx context.Context, id string) *domain.Paste {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	p, ok := l.c.Get(id)
	if !ok {
		return nil
	}
	if p.Expired(time.Now().UnixMilli()) {
		l.c.Remove(id)
		return nil
	}
	out := p
	return &out
}

func (l *LRU) Set(p *domain.Paste) {
	if p == nil || p.ID == "" {
		return
	}
	l.c.Add(p.ID, *p)
}

func (l *LRU) Delete(id string) {
	l.c.Remove(id)
}

func (l *LRU) Purge() {
	l.c.Purge()
}
