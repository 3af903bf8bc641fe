package cache

import "sync"

// Scoped holds one value per login session, created on first use and closed
// when the session ends.
type Scoped[T any] struct {
	mu      sync.Mutex
	items   map[string]T
	create  func(token string) T
	release func(T)
}

func NewScoped[T any](create func(token string) T, release func(T)) *Scoped[T] {
	return &Scoped[T]{items: make(map[string]T), create: create, release: release}
}

// Get returns the value for token, creating it when absent.
func (s *Scoped[T]) Get(token string) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[token]
	if !ok {
		v = s.create(token)
		s.items[token] = v
	}
	return v
}

// Lookup returns the value without creating one.
func (s *Scoped[T]) Lookup(token string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[token]
	return v, ok
}

// Drop removes and releases the value for token.
func (s *Scoped[T]) Drop(token string) {
	s.mu.Lock()
	v, ok := s.items[token]
	delete(s.items, token)
	s.mu.Unlock()
	if ok && s.release != nil {
		s.release(v)
	}
}

// DropAll releases every value. Used on shutdown.
func (s *Scoped[T]) DropAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]T)
	s.mu.Unlock()
	if s.release == nil {
		return
	}
	for _, v := range items {
		s.release(v)
	}
}

func (s *Scoped[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
