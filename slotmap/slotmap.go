// Package slotmap stores values behind generational handles.
//
// A handle stays valid until its value is removed; after that the slot may be
// reused by a later Insert, but with a new generation, so stale handles
// never resolve to the new value.
package slotmap

import (
	"fmt"
	"iter"
)

// Handle is a weak reference into a Map.
type Handle struct {
	Index      uint32
	Generation uint32
}

// Nil is the zero handle. Generations start at 1, so it never resolves.
var Nil = Handle{}

func (h Handle) IsNil() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index, h.Generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

type Map[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// Insert stores v and returns its handle.
func (m *Map[T]) Insert(v T) Handle {
	var index uint32
	if n := len(m.free); n > 0 {
		index = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		index = uint32(len(m.slots))
		m.slots = append(m.slots, slot[T]{})
	}

	s := &m.slots[index]
	s.generation++
	s.value = v
	s.live = true
	m.count++

	return Handle{Index: index, Generation: s.generation}
}

// Get returns a pointer to the value behind h. The pointer is only valid
// until the next Insert.
func (m *Map[T]) Get(h Handle) (*T, bool) {
	if !m.Contains(h) {
		return nil, false
	}
	return &m.slots[h.Index].value, true
}

// MustGet is Get for handles the caller knows are live; it panics otherwise.
func (m *Map[T]) MustGet(h Handle) *T {
	v, ok := m.Get(h)
	if !ok {
		panic(fmt.Sprintf("slotmap: invalid handle %v", h))
	}
	return v
}

func (m *Map[T]) Contains(h Handle) bool {
	if h.IsNil() || int(h.Index) >= len(m.slots) {
		return false
	}
	s := &m.slots[h.Index]
	return s.live && s.generation == h.Generation
}

// Remove deletes the value behind h. It reports whether h was live.
func (m *Map[T]) Remove(h Handle) bool {
	if !m.Contains(h) {
		return false
	}

	s := &m.slots[h.Index]
	var zero T
	s.value = zero
	s.live = false
	m.free = append(m.free, h.Index)
	m.count--

	return true
}

func (m *Map[T]) Len() int {
	return m.count
}

// All iterates live values in slot order.
func (m *Map[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range m.slots {
			s := &m.slots[i]
			if !s.live {
				continue
			}
			if !yield(Handle{Index: uint32(i), Generation: s.generation}, &s.value) {
				return
			}
		}
	}
}
