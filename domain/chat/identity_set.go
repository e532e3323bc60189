package chat

import (
	"slices"
)

// IdentitySet is a grow-only set of identities: it can be added to and
// merged, never shrunk.
type IdentitySet struct {
	members map[UserID]struct{}
}

func NewIdentitySet(ids ...UserID) IdentitySet {
	s := IdentitySet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add reports whether id was not already present.
func (s *IdentitySet) Add(id UserID) bool {
	if s.members == nil {
		s.members = make(map[UserID]struct{})
	}
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Union adds every member of other and reports whether the set grew.
func (s *IdentitySet) Union(other IdentitySet) bool {
	grew := false
	for id := range other.members {
		if s.Add(id) {
			grew = true
		}
	}
	return grew
}

func (s IdentitySet) Contains(id UserID) bool {
	_, ok := s.members[id]
	return ok
}

func (s IdentitySet) Len() int {
	return len(s.members)
}

// Members returns the identities in lexical order.
func (s IdentitySet) Members() []UserID {
	out := make([]UserID, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s IdentitySet) Clone() IdentitySet {
	c := IdentitySet{}
	c.Union(s)
	return c
}
