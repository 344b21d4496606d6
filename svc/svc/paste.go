package svc

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"pastebox/cfg"
	"pastebox/metrics"
	"pastebox/pkg/domain"
	"pastebox/svc/cache"
	"pastebox/svc/store"
	"pastebox/svc/util"
)

// Paste is the single entry point the HTTP layer talks to. It owns the one
// backend selected at startup; no runtime switching.
type Paste struct {
	store store.Store
	lru   *cache.LRU
	cfg   *cfg.Cfg
	sf    singleflight.Group
}

func NewPaste(st store.Store, lru *cache.LRU, c *cfg.Cfg) *Paste {
	if st == nil || lru == nil || c == nil {
		panic("paste service: nil dependency (store, lru, or cfg)")
	}
	return &Paste{store: st, lru: lru, cfg: c}
}

// Save applies defaults, validates, and writes through the active backend.
// Write failures propagate: the caller must know when data was not stored.
func (p *Paste) Save(ctx context.Context, paste *domain.Paste) error {
	if paste == nil {
		return domain.ErrInvalidRequest
	}
	if strings.TrimSpace(paste.Content) == "" {
		return domain.ErrContentRequired
	}
	// limits are in characters, not bytes: multibyte content counts per rune
	if utf8.RuneCountInString(paste.Content) > p.cfg.MaxContentSize {
		return domain.ErrPasteTooLarge
	}
	paste.Title = strings.TrimSpace(paste.Title)
	if paste.Title == "" {
		paste.Title = domain.DefaultTitle
	}
	if utf8.RuneCountInString(paste.Title) > p.cfg.MaxTitleLen {
		return domain.ErrTitleTooLong
	}
	if strings.TrimSpace(paste.Language) == "" {
		paste.Language = domain.DefaultLanguage
	}
	if paste.CreatedAt == 0 {
		paste.CreatedAt = time.Now().UnixMilli()
	}
	if paste.ExpiresAt != nil && *paste.ExpiresAt <= paste.CreatedAt {
		return domain.ErrInvalidExpiry
	}
	if id := store.SanitizeID(paste.ID); id == "" || id != paste.ID {
		return domain.ErrInvalidRequest
	}
	if err := p.store.Set(ctx, paste); err != nil {
		return errors.Wrap(err, "save paste")
	}
	p.lru.Set(paste)
	metrics.PasteCreated.Inc()
	return nil
}

func (p *Paste) Get(ctx context.Context, id string) (*domain.Paste, error) {
	sid := store.SanitizeID(id)
	if sid == "" {
		return nil, domain.ErrPasteNotFound
	}
	if paste := p.lru.Get(ctx, sid); paste != nil {
		metrics.CacheHits.Inc()
		metrics.PasteRetrieved.Inc()
		return paste, nil
	}
	metrics.CacheMisses.Inc()
	v, err, _ := p.sf.Do(sid, func() (interface{}, error) {
		return p.store.Get(ctx, sid)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			p.lru.Delete(sid)
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	paste := v.(*domain.Paste)
	if paste.Expired(time.Now().UnixMilli()) {
		p.lru.Delete(sid)
		if _, err := p.store.Delete(ctx, sid); err != nil {
			util.Debug().Err(err).Str("id", sid).Msg("failed to evict expired paste")
		}
		return nil, domain.ErrPasteNotFound
	}
	p.lru.Set(paste)
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

func (p *Paste) Delete(ctx context.Context, id string) (bool, error) {
	sid := store.SanitizeID(id)
	if sid == "" {
		return false, nil
	}
	p.lru.Delete(sid)
	removed, err := p.store.Delete(ctx, sid)
	if err != nil {
		return false, errors.Wrap(err, "delete paste")
	}
	if removed {
		metrics.PasteDeleted.Inc()
	}
	return removed, nil
}

// List returns non-expired pastes newest-first. Always empty under the
// remote backend.
func (p *Paste) List(ctx context.Context) ([]*domain.Paste, error) {
	pastes, err := p.store.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list pastes")
	}
	return pastes, nil
}

func (p *Paste) Mode() store.Mode {
	return p.store.Mode()
}

func (p *Paste) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}
