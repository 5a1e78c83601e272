package memory

import (
	"context"
	"sync"

	"github.com/phenrril/storefront/internal/domain"
)

// Store guarda los documentos en memoria. Se pierde al reiniciar.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New() *Store { return &Store{docs: map[string][]byte{}} }

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}
