package accounts

import (
	"testing"

	"github.com/craftling/craftling/internals/config"
	"github.com/craftling/craftling/internals/merrors"
)

// memoryStore is an in-memory Persister for tests
type memoryStore struct {
	state    State
	saves    int
	failSave bool
}

func (m *memoryStore) Load() (*State, error) {
	state := m.state
	return &state, nil
}

func (m *memoryStore) Save(state *State) error {
	if m.failSave {
		return merrors.ErrNetwork.Because("disk is gone")
	}
	m.state = *state
	m.saves++
	return nil
}

// memoryConfig is an in-memory ConfigStore for tests
type memoryConfig struct {
	values map[string]string
	saves  int
}

func (m *memoryConfig) Get(key string) string { return m.values[key] }

func (m *memoryConfig) Set(key string, value string) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
}

func (m *memoryConfig) Save() error {
	m.saves++
	return nil
}

func newTestService(t *testing.T, opts Options) (*Service, *memoryStore, *memoryConfig) {
	t.Helper()
	store := &memoryStore{}
	cfg := &memoryConfig{}
	if opts.Store == nil {
		opts.Store = store
	} else {
		store = opts.Store.(*memoryStore)
	}
	if opts.Config == nil {
		opts.Config = cfg
	} else {
		cfg = opts.Config.(*memoryConfig)
	}

	service, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return service, store, cfg
}

func selectedID(cfg *memoryConfig) string {
	return cfg.values[config.KeySelectedPlayer]
}
