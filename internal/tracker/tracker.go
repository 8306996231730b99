// Package tracker records which component identities a run has already
// handled.
package tracker

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Set is a grow-only set of identities scoped to one run.
//
// Identities are interned to uint32 IDs and membership is kept in a roaring
// bitmap, so Contains never touches the string map after interning.
type Set struct {
	mu     sync.Mutex
	ids    map[string]uint32
	names  []string // reverse: uint32 -> identity
	member *roaring.Bitmap
}

func New() *Set {
	return &Set{
		ids:    make(map[string]uint32),
		member: roaring.New(),
	}
}

// Add marks identity as processed. It reports whether the identity was new.
func (s *Set) Add(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member.CheckedAdd(s.intern(identity))
}

// Contains reports whether identity has been processed.
func (s *Set) Contains(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[identity]
	return ok && s.member.Contains(id)
}

// Len returns the number of processed identities.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.member.GetCardinality())
}

// Identities returns the processed identities, sorted.
func (s *Set) Identities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, s.member.GetCardinality())
	it := s.member.Iterator()
	for it.HasNext() {
		out = append(out, s.names[it.Next()])
	}
	sort.Strings(out)
	return out
}

// intern must be called with s.mu held.
func (s *Set) intern(identity string) uint32 {
	if id, ok := s.ids[identity]; ok {
		return id
	}
	id := uint32(len(s.names))
	s.ids[identity] = id
	s.names = append(s.names, identity)
	return id
}
