package handles

import (
	"image"
	"sync"
)

type entry struct {
	m    *image.RGBA
	refs int
}

// MemStore is a Store that keeps bitmaps in memory until their last
// reference is released.
type MemStore struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]*entry
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		next:    1,
		entries: make(map[Handle]*entry),
	}
}

// Add implements Store.
func (s *MemStore) Add(m *image.RGBA) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.next
	s.next++
	s.entries[h] = &entry{m: m, refs: 1}
	return h
}

// Resolve implements Store.
func (s *MemStore) Resolve(h Handle) (*image.RGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[h]
	if !ok {
		return nil, false
	}
	return e.m, true
}

// Retain implements Store.
func (s *MemStore) Retain(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[h]
	if !ok {
		return false
	}
	e.refs++
	return true
}

// Release implements Store.
func (s *MemStore) Release(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[h]
	if !ok {
		return
	}
	if e.refs--; e.refs <= 0 {
		delete(s.entries, h)
	}
}

// Evict drops h regardless of its references.
func (s *MemStore) Evict(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, h)
}

// Len returns the number of stored bitmaps.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
