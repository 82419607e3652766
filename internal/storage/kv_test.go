package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

func TestKeyValueStores(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	fileKV, err := NewFileKV(t.TempDir(), log)
	if err != nil {
		t.Fatalf("new file kv: %v", err)
	}

	stores := map[string]domain.KeyValueStore{
		"memory": NewMemoryKV(log),
		"file":   fileKV,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			// Missing key.
			if _, ok, err := store.Get("foodify_cart"); err != nil || ok {
				t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
			}

			// Set and get.
			if err := store.Set("foodify_cart", `{"items":[]}`); err != nil {
				t.Fatalf("set: %v", err)
			}
			v, ok, err := store.Get("foodify_cart")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if v != `{"items":[]}` {
				t.Fatalf("unexpected value %q", v)
			}

			// Overwrite.
			if err := store.Set("foodify_cart", "second"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if v, _, _ := store.Get("foodify_cart"); v != "second" {
				t.Fatalf("expected overwrite, got %q", v)
			}

			// Remove, twice.
			if err := store.Remove("foodify_cart"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if err := store.Remove("foodify_cart"); err != nil {
				t.Fatalf("second remove: %v", err)
			}
			if _, ok, _ := store.Get("foodify_cart"); ok {
				t.Fatal("expected key to be gone")
			}
		})
	}
}

func TestFileKVSurvivesReopen(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	dir := t.TempDir()

	first, err := NewFileKV(dir, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := NewFileKV(dir, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := second.Get("k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestFileKVReadErrorIsStorageError(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	dir := t.TempDir()
	store, err := NewFileKV(dir, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// A directory where the value file should be makes ReadFile fail.
	if err := os.Mkdir(store.path("broken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, _, err = store.Get("broken")
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if filepath.Dir(store.path("broken")) != dir {
		t.Fatal("value files must live directly under the store dir")
	}
}
