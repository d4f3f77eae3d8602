// Package likes holds the viewer's local like toggles. Toggles never reach
// the server and are forgotten when the program exits.
package likes

import "sort"

// Set is the set of comment ids the viewer has marked liked. The zero value
// is an empty set ready to use.
type Set struct {
	ids map[int]struct{}
}

// Toggle flips membership of id and reports whether id is liked afterwards.
func (s *Set) Toggle(id int) bool {
	if s.ids == nil {
		s.ids = make(map[int]struct{})
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id is liked.
func (s Set) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of liked ids.
func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the liked ids in ascending order.
func (s Set) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
