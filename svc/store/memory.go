package store

import (
	"context"
	"sync"
	"time"

	"pastebox/pkg/domain"
)

// MemStore keeps pastes in a process-lifetime map. Nothing survives a
// restart. Values are stored by copy so callers cannot mutate stored state.
type MemStore struct {
	mu     sync.RWMutex
	pastes map[string]domain.Paste
}

func NewMemStore() *MemStore {
	return &MemStore{pastes: make(map[string]domain.Paste)}
}

func (m *MemStore) Get(ctx context.Context, id string) (*domain.Paste, error) {
	id = SanitizeID(id)
	if id == "" {
		return nil, domain.ErrPasteNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[id]
	if !ok {
		return nil, domain.ErrPasteNotFound
	}
	if p.Expired(time.Now().UnixMilli()) {
		delete(m.pastes, id)
		return nil, domain.ErrPasteNotFound
	}
	out := p
	return &out, nil
}

func (m *MemStore) Set(ctx context.Context, p *domain.Paste) error {
	id := SanitizeID(p.ID)
	if id == "" || id != p.ID {
		return domain.ErrInvalidRequest
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pastes[id] = *p
	return nil
}

func (m *MemStore) Delete(ctx context.Context, id string) (bool, error) {
	id = SanitizeID(id)
	if id == "" {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[id]; !ok {
		return false, nil
	}
	delete(m.pastes, id)
	return true, nil
}

func (m *MemStore) ListAll(ctx context.Context) ([]*domain.Paste, error) {
	now := time.Now().UnixMilli()
	m.mu.Lock()
	pastes := make([]*domain.Paste, 0, len(m.pastes))
	for id, p := range m.pastes {
		if p.Expired(now) {
			delete(m.pastes, id)
			continue
		}
		out := p
		pastes = append(pastes, &out)
	}
	m.mu.Unlock()
	sortNewestFirst(pastes)
	return pastes, nil
}

func (m *MemStore) Mode() Mode { return ModeMemory }

func (m *MemStore) Ping(ctx context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }
