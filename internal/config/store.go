package config

import (
	"sync"
)

// Store holds the last successfully loaded Config for one file.
type Store struct {
	path string

	mu      sync.RWMutex
	current *Config
}

// NewStore creates a Store for path. Until a load succeeds, Current returns
// Defaults().
func NewStore(path string) *Store {
	return &Store{path: path, current: Defaults()}
}

// Path returns the file the store reads.
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the file. On success the new value replaces the current one;
// on failure the current value is left untouched and the error returned.
func (s *Store) Load() (*Config, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Current returns the active Config. Callers must treat it as read-only.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
