// Package credentials persists the account state (player roster and
// auth server registry). The state carries access tokens, so it goes
// into the OS keychain when one is available; otherwise it falls back
// to a file in the launcher dir, written atomically.
package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/craftling/craftling/internals/accounts"
	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

var (
	keyringService = "craftling"
	keyringUser    = "account_data"

	stateFileName = "accounts.json"
)

// Store persists the account state
type Store struct {
	globalDir string
	// NoKeyRingMode skips the OS keychain and uses plain files. It
	// flips on automatically when the keychain is unusable.
	NoKeyRingMode bool
}

// New creates a store rooted at the launcher global dir
func New(globalDir string) *Store {
	return &Store{globalDir: globalDir}
}

// Load reads the persisted state. A missing state is not an error,
// it returns an empty one.
func (s *Store) Load() (*accounts.State, error) {
	if !s.NoKeyRingMode {
		blob, err := keyring.Get(keyringService, keyringUser)
		switch err {
		case nil:
			state := &accounts.State{}
			if err := json.Unmarshal([]byte(blob), state); err != nil {
				return nil, errors.Wrap(err, "corrupted account data in keychain")
			}
			return state, nil
		case keyring.ErrNotFound:
			// nothing stored yet, the file might still have data from
			// an earlier no-keyring run
		default:
			s.NoKeyRingMode = true
		}
	}
	return s.loadFromFile()
}

// Save persists the state. Every successful roster mutation calls
// this before the mutation becomes visible.
func (s *Store) Save(state *accounts.State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if !s.NoKeyRingMode {
		err := keyring.Set(keyringService, keyringUser, string(blob))
		if err == nil {
			return nil
		}
		s.NoKeyRingMode = true
	}
	return s.writeFile(blob)
}

func (s *Store) loadFromFile() (*accounts.State, error) {
	raw, err := os.ReadFile(filepath.Join(s.globalDir, stateFileName))
	switch {
	case err == nil:
		state := &accounts.State{}
		if err := json.Unmarshal(raw, state); err != nil {
			return nil, errors.Wrap(err, "corrupted account data file")
		}
		return state, nil
	case os.IsNotExist(err):
		// no file is fine
		return &accounts.State{}, nil
	default:
		return nil, errors.Wrap(err, "could not read account data")
	}
}

// writeFile writes via temp file + rename so a concurrent reader
// never observes a partial state
func (s *Store) writeFile(blob []byte) error {
	if err := os.MkdirAll(s.globalDir, os.ModePerm); err != nil {
		return err
	}
	target := filepath.Join(s.globalDir, stateFileName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, blob, 0700); err != nil {
		return errors.Wrap(err, "could not write account data")
	}
	return os.Rename(tmp, target)
}
