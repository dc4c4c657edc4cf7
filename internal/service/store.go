package service

import (
	"sync"

	"github.com/zhejian/link-shortener/internal/model"
)

const DefaultHistoryCapacity = 5

// ConversionStore holds the active result and a bounded, most-recent-first
// history. Record is the only mutation path.
type ConversionStore struct {
	mu       sync.RWMutex
	capacity int
	active   string
	history  []model.Conversion
}

// NewConversionStore creates a store keeping at most capacity conversions
func NewConversionStore(capacity int) *ConversionStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &ConversionStore{
		capacity: capacity,
		history:  make([]model.Conversion, 0, capacity),
	}
}

// Record makes c the active result and pushes it to the front of the
// history, dropping the oldest entries beyond capacity.
func (s *ConversionStore) Record(c model.Conversion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = c.Alias

	n := len(s.history) + 1
	if n > s.capacity {
		n = s.capacity
	}
	next := make([]model.Conversion, n, s.capacity)
	next[0] = c
	copy(next[1:], s.history)
	s.history = next
}

// Current returns the active alias, false if nothing was recorded yet
func (s *ConversionStore) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

// History returns a copy of the history, newest first
func (s *ConversionStore) History() []model.Conversion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversion, len(s.history))
	copy(out, s.history)
	return out
}

// Entry returns row i of the history
func (s *ConversionStore) Entry(i int) (model.Conversion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.history) {
		return model.Conversion{}, false
	}
	return s.history[i], true
}

// Capacity returns the maximum history length
func (s *ConversionStore) Capacity() int {
	return s.capacity
}
