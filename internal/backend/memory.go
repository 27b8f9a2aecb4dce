package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/keyward/keyward/internal/namespace"
)

// MemoryStore is a map-backed Store for tests. It honors the same
// contract as the real variants, including ErrNotFound semantics and
// names-only enumeration.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Store(key namespace.Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key.BackendKey()] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Retrieve(key namespace.Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key.BackendKey()]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key.Name, ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Delete(key namespace.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key.BackendKey()]; !ok {
		return fmt.Errorf("%q: %w", key.Name, ErrNotFound)
	}
	delete(s.items, key.BackendKey())
	return nil
}

func (s *MemoryStore) Enumerate(service string, scope namespace.Scope) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := namespace.Prefix(service, scope)
	var names []string
	for backendKey := range s.items {
		if !strings.HasPrefix(backendKey, prefix) {
			continue
		}
		key, err := namespace.ParseBackendKey(backendKey)
		if err != nil {
			continue
		}
		names = append(names, key.Name)
	}
	sort.Strings(names)
	return names, nil
}

var _ Store = (*MemoryStore)(nil)
