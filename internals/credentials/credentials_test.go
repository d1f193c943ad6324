package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/craftling/craftling/internals/accounts"
)

func fileStore(t *testing.T) *Store {
	t.Helper()
	store := New(t.TempDir())
	store.NoKeyRingMode = true
	return store
}

func TestLoadMissingState(t *testing.T) {
	state, err := fileStore(t).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Players) != 0 || len(state.AuthServers) != 0 {
		t.Errorf("expected an empty state, got %+v", state)
	}
}

func TestFileRoundtrip(t *testing.T) {
	store := fileStore(t)

	saved := &accounts.State{
		Players: []accounts.Player{{
			ID:          "offline:11111111111111111111111111111111",
			Name:        "Steve",
			UUID:        "11111111-1111-1111-1111-111111111111",
			Type:        accounts.Offline,
			AccessToken: "secret",
		}},
		AuthServers: []accounts.AuthServer{{
			Name:    "Example",
			AuthURL: "https://skin.example.com/api/yggdrasil",
		}},
	}
	if err := store.Save(saved); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Players) != 1 || loaded.Players[0].Name != "Steve" {
		t.Errorf("unexpected players %+v", loaded.Players)
	}
	if loaded.Players[0].AccessToken != "secret" {
		t.Error("tokens must survive the roundtrip")
	}
	if len(loaded.AuthServers) != 1 || loaded.AuthServers[0].AuthURL != saved.AuthServers[0].AuthURL {
		t.Errorf("unexpected auth servers %+v", loaded.AuthServers)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := fileStore(t)
	if err := store.Save(&accounts.State{}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(store.globalDir, stateFileName+".tmp")); !os.IsNotExist(err) {
		t.Error("the temp file must be renamed away")
	}
	if _, err := os.Stat(filepath.Join(store.globalDir, stateFileName)); err != nil {
		t.Error("the state file must exist:", err)
	}
}

func TestLoadCorruptedFile(t *testing.T) {
	store := fileStore(t)
	if err := os.WriteFile(filepath.Join(store.globalDir, stateFileName), []byte("{nope"), 0700); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(); err == nil {
		t.Fatal("a corrupted state file must surface as an error")
	}
}
