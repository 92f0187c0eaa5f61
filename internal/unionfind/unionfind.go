// Package unionfind implements a disjoint-set forest with path compression and
// union by size.
//
// Root selection is deterministic: when two sets of equal size are merged, the
// smaller key becomes the root, so the same sequence of unions always yields
// the same forest.
package unionfind

import "cmp"

// Set is a partition over keys discovered lazily on first reference. The zero
// value is not usable, use New. Set is not safe for concurrent use.
type Set[K cmp.Ordered] struct {
	parent map[K]K
	size   map[K]int
}

// New returns an empty Set.
func New[K cmp.Ordered]() *Set[K] {
	return &Set[K]{parent: make(map[K]K), size: make(map[K]int)}
}

// Find returns the root of the set containing id, inserting id as a singleton
// if it has not been seen before. Every node visited is repointed to the root.
func (s *Set[K]) Find(id K) K {
	p, ok := s.parent[id]
	if !ok {
		s.parent[id] = id
		s.size[id] = 1
		return id
	}
	root := id
	for p != root {
		root = p
		p = s.parent[root]
	}
	for id != root {
		next := s.parent[id]
		s.parent[id] = root
		id = next
	}
	return root
}

// Union merges the sets containing a and b. It reports whether two distinct
// sets were merged.
func (s *Set[K]) Union(a, b K) bool {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return false
	}
	sa, sb := s.size[ra], s.size[rb]
	if sa < sb || (sa == sb && rb < ra) {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	s.size[ra] += s.size[rb]
	delete(s.size, rb)
	return true
}

// Connected reports whether a and b are in the same set.
func (s *Set[K]) Connected(a, b K) bool {
	return s.Find(a) == s.Find(b)
}

// Size returns number of elements in the set containing id.
func (s *Set[K]) Size(id K) int {
	return s.size[s.Find(id)]
}

// Len returns number of keys seen so far.
func (s *Set[K]) Len() int { return len(s.parent) }

// Sets returns number of disjoint sets.
func (s *Set[K]) Sets() int { return len(s.size) }
