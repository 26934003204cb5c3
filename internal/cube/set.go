package cube

import (
	"slices"
	"strings"
)

// Set is a union of cubes kept as a plain list. Members are never merged;
// a set may hold redundant cubes.
//
// A Set is not safe for concurrent mutation.
type Set struct {
	cubes []Cube
}

// NewSet returns a set holding the given cubes in order.
func NewSet(cubes ...Cube) *Set {
	return &Set{cubes: slices.Clone(cubes)}
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.cubes) }

// Cubes returns the members in insertion order.
func (s *Set) Cubes() []Cube { return slices.Clone(s.cubes) }

// Clone returns an independent copy.
func (s *Set) Clone() *Set { return NewSet(s.cubes...) }

// Encompasses reports whether a single member covers c. Several members
// jointly covering c are not detected.
func (s *Set) Encompasses(c Cube) bool {
	for _, m := range s.cubes {
		if m.Encompasses(c) {
			return true
		}
	}
	return false
}

// Add appends a cube.
func (s *Set) Add(c Cube) {
	s.cubes = append(s.cubes, c)
}

// RemoveEncompassedBy deletes every member lying inside c and returns the
// number removed.
func (s *Set) RemoveEncompassedBy(c Cube) int {
	return s.removeIf(func(m Cube) bool { return c.Encompasses(m) })
}

// RemoveEncompassing deletes every member containing c and returns the
// number removed.
func (s *Set) RemoveEncompassing(c Cube) int {
	return s.removeIf(func(m Cube) bool { return m.Encompasses(c) })
}

// RemoveAxis projects attr out of every member. Members that become
// duplicates are kept.
func (s *Set) RemoveAxis(attr string) {
	for i, m := range s.cubes {
		s.cubes[i] = m.WithoutAxis(attr)
	}
}

// Clear removes every member.
func (s *Set) Clear() { s.cubes = nil }

// EqualUnordered reports whether both sets hold the same multiset of cubes.
func (s *Set) EqualUnordered(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	used := make([]bool, o.Len())
	for _, c := range s.cubes {
		found := false
		for j, oc := range o.cubes {
			if !used[j] && c.Equal(oc) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	parts := make([]string, len(s.cubes))
	for i, c := range s.cubes {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *Set) removeIf(pred func(Cube) bool) int {
	before := len(s.cubes)
	s.cubes = slices.DeleteFunc(s.cubes, pred)
	return before - len(s.cubes)
}
