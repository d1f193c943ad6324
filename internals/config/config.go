// Package config is the persisted launcher configuration: a small
// keyed store used (among other things) to keep the selected player
// id in sync with the roster.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Keys this core reads and writes
const (
	KeySelectedPlayer = "players.selected"
	KeyCacheDir       = "download.cacheDir"
)

// Store is a mutex guarded keyed config backed by a yaml file
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// New reads (or initializes) the config file at path
func New(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, it gets created on the first save
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, err
		}
	}
	return &Store{v: v, path: path}, nil
}

// Get returns the string value for key, empty when unset
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(key)
}

// Set updates the value for key in memory. Call Save to persist.
func (s *Store) Set(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
}

// Save writes the config atomically: to a temp file first, then
// renamed over the real one, so no concurrent reader ever sees a
// partial file
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), os.ModePerm); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := s.v.WriteConfigAs(tmp); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
