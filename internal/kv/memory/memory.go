package memory

import (
	"context"
	"sync"

	"tally/internal/kv"
)

// Store keeps slots in process memory. Values are copied in and out.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte

	// Injected failures, see FailGets and FailSets.
	getErr error
	setErr error
}

var _ kv.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

// Get returns a copy of the value under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Delete clears a slot, as an external wipe of app storage would.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// FailGets makes subsequent Get calls return err (nil restores normal behavior).
func (s *Store) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// FailSets makes subsequent Set calls return err (nil restores normal behavior).
func (s *Store) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}
