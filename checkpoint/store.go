package checkpoint

import (
	"sort"

	"github.com/holiman/uint256"
)

// Store keeps one History per key, e.g. per account address
type Store[K comparable] struct {
	histories map[K]*History
}

func NewStore[K comparable]() *Store[K] {
	return &Store[K]{histories: make(map[K]*History)}
}

// Record appends or coalesces value for key in epoch currentID
func (s *Store[K]) Record(key K, currentID uint64, value *uint256.Int) {
	h, ok := s.histories[key]
	if !ok {
		h = &History{}
		s.histories[key] = h
	}
	h.Record(currentID, value)
}

// ValueAt returns the value of key frozen by snapshot id, zero for unknown keys
func (s *Store[K]) ValueAt(key K, id uint64) *uint256.Int {
	h, ok := s.histories[key]
	if !ok {
		return uint256.NewInt(0)
	}
	return h.ValueAt(id)
}

func (s *Store[K]) Latest(key K) *uint256.Int {
	h, ok := s.histories[key]
	if !ok {
		return uint256.NewInt(0)
	}
	return h.Latest()
}

// History returns the log of key, or nil when the key was never recorded
func (s *Store[K]) History(key K) *History {
	return s.histories[key]
}

// Set replaces the log of key, used when restoring persisted state
func (s *Store[K]) Set(key K, h *History) {
	s.histories[key] = h
}

func (s *Store[K]) Len() int {
	return len(s.histories)
}

// Keys returns every recorded key ordered by less
func (s *Store[K]) Keys(less func(a, b K) bool) []K {
	keys := make([]K, 0, len(s.histories))
	for k := range s.histories {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
