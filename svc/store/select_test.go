package store

import (
	"testing"

	"pastebox/cfg"
)

func TestSelect_ExplicitOverride(t *testing.T) {
	c := &cfg.Cfg{StorageBackend: "memory", DataDir: t.TempDir()}
	st, err := Select(c)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if st.Mode() != ModeMemory {
		t.Errorf("expected memory mode, got %s", st.Mode())
	}

	c = &cfg.Cfg{StorageBackend: "file", DataDir: t.TempDir()}
	st, err = Select(c)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if st.Mode() != ModeFile {
		t.Errorf("expected file mode, got %s", st.Mode())
	}
}

func TestSelect_DefaultsToFile(t *testing.T) {
	// no override, no redis credentials
	c := &cfg.Cfg{DataDir: t.TempDir()}
	st, err := Select(c)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if st.Mode() != ModeFile {
		t.Errorf("expected file mode as unattended default, got %s", st.Mode())
	}
}

func TestSelect_PartialCredentialsDefaultToFile(t *testing.T) {
	// url without password does not signal remote availability
	c := &cfg.Cfg{DataDir: t.TempDir(), RedisURL: "redis://localhost:6379"}
	st, err := Select(c)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if st.Mode() != ModeFile {
		t.Errorf("expected file mode, got %s", st.Mode())
	}
}

func TestSelect_Deterministic(t *testing.T) {
	c := &cfg.Cfg{StorageBackend: "memory", DataDir: t.TempDir()}
	for i := 0; i < 5; i++ {
		st, err := Select(c)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if st.Mode() != ModeMemory {
			t.Fatalf("selection not deterministic: got %s on run %d", st.Mode(), i)
		}
	}
}
