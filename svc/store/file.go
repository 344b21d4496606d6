package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pastebox/pkg/domain"
	"pastebox/svc/util"
)

const (
	fileExt    = ".json"
	dirMode    = 0o755
	recordMode = 0o600
)

// FileStore writes one <id>.json per paste under a managed directory. Write
// failures propagate to the caller; read and delete failures degrade to
// not-found because a missing cache-like record is a recoverable state.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+fileExt)
}

func (f *FileStore) Get(ctx context.Context, id string) (*domain.Paste, error) {
	id = SanitizeID(id)
	if id == "" {
		return nil, domain.ErrPasteNotFound
	}
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		return nil, domain.ErrPasteNotFound
	}
	var p domain.Paste
	if err := json.Unmarshal(data, &p); err != nil {
		// corrupt or partial record, behave as if it never existed
		return nil, domain.ErrPasteNotFound
	}
	if p.Expired(time.Now().UnixMilli()) {
		if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
			util.Debug().Err(err).Str("id", id).Msg("failed to evict expired paste file")
		}
		return nil, domain.ErrPasteNotFound
	}
	return &p, nil
}

func (f *FileStore) Set(ctx context.Context, p *domain.Paste) error {
	id := SanitizeID(p.ID)
	if id == "" || id != p.ID {
		return domain.ErrInvalidRequest
	}
	// MkdirAll is idempotent, concurrent first-time creation is safe
	if err := os.MkdirAll(f.dir, dirMode); err != nil {
		return errors.Wrap(err, "create paste dir")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal paste")
	}
	if err := os.WriteFile(f.path(id), data, recordMode); err != nil {
		return errors.Wrap(err, "write paste file")
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	id = SanitizeID(id)
	if id == "" {
		return false, nil
	}
	if err := os.Remove(f.path(id)); err != nil {
		return false, nil
	}
	return true, nil
}

func (f *FileStore) ListAll(ctx context.Context) ([]*domain.Paste, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return []*domain.Paste{}, nil
	}
	now := time.Now().UnixMilli()
	pastes := make([]*domain.Paste, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		var p domain.Paste
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		if p.Expired(now) {
			if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				util.Debug().Err(err).Str("file", e.Name()).Msg("failed to evict expired paste file")
			}
			continue
		}
		pastes = append(pastes, &p)
	}
	sortNewestFirst(pastes)
	return pastes, nil
}

func (f *FileStore) Mode() Mode { return ModeFile }

func (f *FileStore) Ping(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, dirMode); err != nil {
		return errors.Wrap(err, "paste dir unavailable")
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
