package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Set(KeySelectedPlayer, "offline:abc")
	store.Set(KeyCacheDir, "/tmp/cache")
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get(KeySelectedPlayer); got != "offline:abc" {
		t.Errorf("expected the selection to survive, got %q", got)
	}
	if got := reloaded.Get(KeyCacheDir); got != "/tmp/cache" {
		t.Errorf("expected the cache dir to survive, got %q", got)
	}
}

func TestGetUnset(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if got := store.Get(KeySelectedPlayer); got != "" {
		t.Errorf("expected an empty value, got %q", got)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Set(KeySelectedPlayer, "offline:abc")
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("the temp file must be renamed away")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("the config file must exist:", err)
	}
}
